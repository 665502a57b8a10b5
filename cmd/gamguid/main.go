// Package main is the entry point for the gamguid server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamgui-io/gamgui/internal/config"
	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
	"github.com/gamgui-io/gamgui/internal/runner/kubernetes"
	"github.com/gamgui-io/gamgui/internal/runner/local"
	"github.com/gamgui-io/gamgui/internal/secrets"
	"github.com/gamgui-io/gamgui/internal/server"
	"github.com/gamgui-io/gamgui/internal/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	port := flag.Int("port", 0, "Port to listen on (0 for dynamic allocation, default from GAMGUI_PORT)")
	runnerKind := flag.String("runner", "", "Runner backend: local or kubernetes (default from settings)")
	flag.Parse()

	log.SetPrefix("[gamguid] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	// Refuse to start a second instance
	running, info, err := config.IsServerRunning()
	if err != nil {
		log.Fatalf("Failed to check server status: %v", err)
	}
	if running {
		log.Fatalf("Server already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *runnerKind != "" {
		settings.Runner = *runnerKind
	}

	// An explicit -port wins over GAMGUI_PORT.
	listenPort := *port
	if listenPort == 0 {
		listenPort = config.PortFromEnv(0)
	}

	run(settings, listenPort)
}

func run(settings *models.Settings, port int) {
	backend, err := buildRunner(settings)
	if err != nil {
		log.Fatalf("Failed to create %s runner: %v", settings.Runner, err)
	}

	store, err := buildSecretsStore(settings)
	if err != nil {
		log.Fatalf("Failed to create %s secrets store: %v", settings.Secrets.Store, err)
	}
	defer store.Close()

	sessions := session.NewManager(session.Options{
		Runner:    backend,
		MaxAge:    time.Duration(settings.Session.MaxAgeHours) * time.Hour,
		Namespace: settings.Kubernetes.Namespace,
	})

	srv, err := server.New(server.Options{
		Port:     port,
		Settings: settings,
		Sessions: sessions,
		Secrets:  store,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	serverInfo := models.NewServerInfo("localhost", srv.Port(), os.Getpid())
	if err := config.SaveServerInfo(serverInfo); err != nil {
		log.Fatalf("Failed to write server info: %v", err)
	}

	log.Printf("Server started on port %d (PID %d, %s runner)", srv.Port(), os.Getpid(), backend.Kind())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Printf("Failed to stop server: %v", err)
	}
	sessions.StopAll(ctx)

	if err := config.RemoveSessionState(); err != nil {
		log.Printf("Failed to remove session state: %v", err)
	}
	if err := config.RemoveServerInfo(); err != nil {
		log.Printf("Failed to remove server info: %v", err)
	}

	fmt.Println("Server stopped")
}

func buildRunner(settings *models.Settings) (runner.Runner, error) {
	switch settings.Runner {
	case "", "local":
		return local.New(local.Config{Command: settings.Local.Command}), nil
	case "kubernetes":
		return kubernetes.New(kubernetes.Config{
			Namespace:  settings.Kubernetes.Namespace,
			Image:      settings.Kubernetes.Image,
			Kubeconfig: settings.Kubernetes.Kubeconfig,
		})
	default:
		return nil, fmt.Errorf("unknown runner %q (want local or kubernetes)", settings.Runner)
	}
}

func buildSecretsStore(settings *models.Settings) (secrets.Store, error) {
	switch settings.Secrets.Store {
	case "", "local":
		if err := config.EnsureSecretsDir(); err != nil {
			return nil, err
		}
		dir, err := config.GlobalSecretsDir()
		if err != nil {
			return nil, err
		}
		return secrets.NewLocalStore(dir)
	case "gsm":
		return secrets.NewGSMStore(context.Background(), settings.Secrets.Project)
	default:
		return nil, fmt.Errorf("unknown secrets store %q (want local or gsm)", settings.Secrets.Store)
	}
}
