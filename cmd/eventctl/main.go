package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gestor-eventos/eventctl/internal/api"
	"github.com/gestor-eventos/eventctl/internal/models"
	"github.com/gestor-eventos/eventctl/internal/service"
	"github.com/gestor-eventos/eventctl/internal/session"
	"github.com/gestor-eventos/eventctl/internal/ui"
	"github.com/gestor-eventos/eventctl/pkg/config"
	"github.com/gestor-eventos/eventctl/pkg/logger"
)

var sortOptions = []struct {
	label string
	spec  models.SortSpec
}{
	{"Fecha (Ascendente)", models.SortSpec{Key: models.SortByDate, Order: models.SortAsc}},
	{"Fecha (Descendente)", models.SortSpec{Key: models.SortByDate, Order: models.SortDesc}},
	{"Nombre (A-Z)", models.SortSpec{Key: models.SortByTitle, Order: models.SortAsc}},
	{"Nombre (Z-A)", models.SortSpec{Key: models.SortByTitle, Order: models.SortDesc}},
	{"Ubicación (A-Z)", models.SortSpec{Key: models.SortByLocation, Order: models.SortAsc}},
	{"Ubicación (Z-A)", models.SortSpec{Key: models.SortByLocation, Order: models.SortDesc}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	store := session.NewStore(cfg.SessionFile)
	guard := session.NewGuard(store)
	gateway := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, store, logr)
	term := ui.NewTerminal(os.Stdin, os.Stdout)
	svc := service.NewEventService(gateway, store, term, validator.New(), logr)
	term.Validate = svc.ValidateDraft

	if sess, ok := store.Current(); ok {
		if exp, known := session.TokenExpiry(sess.Token); known && exp.Before(time.Now()) {
			logr.Warn("stored session token looks expired", zap.Time("expired_at", exp))
		}
	}

	ctx := context.Background()

	fmt.Println("Gestor de Eventos")
	for {
		if !guard.Allow() {
			if done := authMenu(ctx, term, svc); done {
				return
			}
			continue
		}
		if done := eventsMenu(ctx, term, store, svc); done {
			return
		}
	}
}

// authMenu is the unauthenticated entry point. Returns true to exit.
func authMenu(ctx context.Context, term *ui.Terminal, svc *service.EventService) bool {
	choice, err := term.ReadLine("\n1) Iniciar sesión  2) Registrarse  0) Salir\n> ")
	if err != nil {
		return true
	}

	switch choice {
	case "1":
		email, err := term.ReadLine("Email: ")
		if err != nil {
			return true
		}
		password, err := term.ReadLine("Contraseña: ")
		if err != nil {
			return true
		}
		if svc.LoginFlow(ctx, email, password) == nil {
			_ = svc.Refresh(ctx)
		}
	case "2":
		name, err := term.ReadLine("Nombre: ")
		if err != nil {
			return true
		}
		email, err := term.ReadLine("Email: ")
		if err != nil {
			return true
		}
		password, err := term.ReadLine("Contraseña: ")
		if err != nil {
			return true
		}
		_ = svc.RegisterFlow(ctx, name, email, password)
	case "0":
		return true
	}
	return false
}

// eventsMenu is the authenticated view. Returns true to exit.
func eventsMenu(ctx context.Context, term *ui.Terminal, store *session.Store, svc *service.EventService) bool {
	sess, ok := store.Current()
	if !ok {
		return false
	}

	fmt.Printf("\nHola, %s — Mis Eventos\n", sess.Name)
	events := svc.Events()
	if len(events) == 0 {
		fmt.Println("No se encontraron eventos")
	}
	for i, evt := range events {
		fmt.Printf("%2d) %s — %s — 📍 %s\n", i+1, evt.Date.Local().Format("02 Jan 2006 15:04"), evt.Title, evt.Location)
	}

	choice, err := term.ReadLine("\n[c]rear [v N]er [e N]ditar [b N]orrar [o]rdenar [r]ecargar [s]alir sesión [q]uitar\n> ")
	if err != nil {
		return true
	}

	cmd, arg := splitCommand(choice)
	switch cmd {
	case "c":
		_ = svc.CreateFlow(ctx)
	case "v":
		if evt, ok := pick(events, arg); ok {
			svc.ShowDetails(evt)
		}
	case "e":
		if evt, ok := pick(events, arg); ok {
			_ = svc.EditFlow(ctx, evt)
		}
	case "b":
		if evt, ok := pick(events, arg); ok {
			_ = svc.DeleteFlow(ctx, evt)
		}
	case "o":
		sortMenu(term, svc)
	case "r":
		_ = svc.Refresh(ctx)
	case "s":
		_ = svc.Logout()
	case "q":
		return true
	}
	return false
}

func sortMenu(term *ui.Terminal, svc *service.EventService) {
	fmt.Println()
	for i, opt := range sortOptions {
		fmt.Printf("%d) %s\n", i+1, opt.label)
	}
	choice, err := term.ReadLine("> ")
	if err != nil {
		return
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(sortOptions) {
		return
	}
	svc.SetSort(sortOptions[n-1].spec)
}

func splitCommand(line string) (string, string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func pick(events []models.Event, arg string) (models.Event, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(events) {
		fmt.Println("Número de evento inválido")
		return models.Event{}, false
	}
	return events[n-1], true
}
