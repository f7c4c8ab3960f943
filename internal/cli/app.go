package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/config"
	"github.com/fitsync-app/fitsync/internal/logging"
	"github.com/fitsync-app/fitsync/internal/polar"
	"github.com/fitsync-app/fitsync/internal/securestore"
	"github.com/fitsync-app/fitsync/internal/services"
)

// App wires the client together: secure storage, the backend clients, the
// vendor client and the services the REPL commands call.
type App struct {
	config *config.Config
	logger logging.Logger

	vault    *securestore.Store
	sessions *services.SessionManager
	training *services.TrainingController

	devices    *services.DeviceService
	activities *services.ActivityService
	metrics    *services.MetricService
	profile    *services.ProfileService

	vendor *polar.Client

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	vault, err := securestore.Open(ctx, cfg.CachePath, cfg.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("opening secure storage: %w", err)
	}

	httpc := &http.Client{Timeout: cfg.HTTPTimeout}

	auth := backend.NewHTTPAuthClient(cfg.BackendURL, cfg.BackendAnonKey, vault, httpc, logger)
	rows := backend.NewHTTPRowStore(cfg.BackendURL, cfg.BackendAnonKey, auth, httpc)

	vendor := polar.NewClient(polar.Config{
		ClientID:     cfg.PolarClientID,
		ClientSecret: cfg.PolarClientSecret,
		RedirectURI:  cfg.PolarRedirectURI,
		AuthURL:      cfg.PolarAuthURL,
		TokenURL:     cfg.PolarTokenURL,
		APIBaseURL:   cfg.PolarAPIURL,
	}, httpc)

	sessions := services.NewSessionManager(auth, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		vault:      vault,
		sessions:   sessions,
		training:   services.NewTrainingController(rows, sessions, logger),
		devices:    services.NewDeviceService(rows, vendor, sessions, logger),
		activities: services.NewActivityService(rows, sessions),
		metrics:    services.NewMetricService(rows, sessions),
		profile:    services.NewProfileService(rows, sessions),
		vendor:     vendor,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}, nil
}

// Run drives the REPL until EOF or an exit command.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// Close releases the auth subscription and the secure storage.
func (a *App) Close() {
	a.sessions.Close()
	if err := a.vault.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing secure storage", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.State() == services.StateAuthenticated
}

// status renders the prompt suffix: the signed-in email, or the lifecycle
// state while nobody is signed in.
func (a *App) status() string {
	if u := a.sessions.CurrentUser(); u != nil {
		return u.Email
	}
	return string(a.sessions.State())
}
