package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"payrun/config"
	"payrun/payroll"
	"payrun/report"
	"payrun/storage"
	"payrun/web"
)

var (
	serveAddr   string
	serveNoOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the payroll web UI",
	Long: `Start the local HTTP server with the full payroll workflow: login,
timesheet upload and validation, report downloads, pay-rate management and
the accounting expense push.`,
	Example: `
  # Start on the configured address
  payrun serve

  # Start on an explicit port
  payrun serve --addr :9090
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if strings.TrimSpace(serveAddr) != "" {
			addr = serveAddr
		}

		if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		users, err := web.NewUserStore(cfg.Paths.UsersFile)
		if err != nil {
			return err
		}
		store, err := storage.OpenSQLite(cfg.Paths.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		handler, err := web.NewServer(web.Options{
			Logger:        logger,
			Store:         store,
			Users:         users,
			Rates:         payroll.NewRateStore(cfg.Paths.RatesFile),
			Metadata:      report.NewMetadataStore(cfg.Paths.MetadataFile),
			UploadDir:     cfg.Paths.UploadDir,
			ReportsDir:    cfg.Paths.ReportsDir,
			DefaultRate:   cfg.Payroll.DefaultRate,
			SessionSecret: cfg.Server.SessionSecret,
			SessionTTL:    time.Duration(cfg.Server.SessionTTLHours) * time.Hour,
			Companies:     cfg.Zoho.Companies,
		})
		if err != nil {
			return err
		}

		server := &http.Server{Addr: addr, Handler: handler}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := listenURLFor(addr)
		fmt.Printf("Listening on %s\n", listenURL)
		if !serveNoOpen {
			if openErr := openURLInBrowser(listenURL); openErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", openErr)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address override (default from config, e.g. :8080)")
	serveCmd.Flags().BoolVar(&serveNoOpen, "no-open", false, "Do not open browser automatically")
}

func listenURLFor(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}
