package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sehati-health/sehati/internal/client/biometric"
	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/client/config"
	"github.com/sehati-health/sehati/internal/client/repositories/grants"
	"github.com/sehati-health/sehati/internal/client/services"
	"github.com/sehati-health/sehati/internal/client/session"
	"github.com/sehati-health/sehati/internal/filex"
	"github.com/sehati-health/sehati/internal/logging"
	pb "github.com/sehati-health/sehati/internal/proto"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type authAPI interface {
	Register(ctx context.Context, w *services.Wallet, p services.Profile) (string, error)
	Login(ctx context.Context, w *services.Wallet) (*session.Session, error)
	Restore(ctx context.Context) (*session.Session, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type keyAPI interface {
	NeedsPassphrase() bool
	Import(ctx context.Context, walletAddress string, keyMaterial []byte, passphrase services.PassphraseFunc) error
	Export(ctx context.Context, walletAddress string, passphrase services.PassphraseFunc) ([]byte, error)
	Enroll(ctx context.Context, walletAddress, sampleRef string, passphrase services.PassphraseFunc) error
	Unlock(ctx context.Context, walletAddress, sampleRef string, passphrase services.PassphraseFunc) ([]byte, error)
}

type grantAPI interface {
	Create(ctx context.Context, w *services.Wallet, ttl time.Duration) (*services.IssuedGrant, error)
	Revoke(ctx context.Context, idOrToken string) error
	List(ctx context.Context, patientID string) ([]*pb.Grant, bool, error)
	Validate(ctx context.Context, input string) (*services.ValidatedGrant, error)
}

type recordAPI interface {
	Add(ctx context.Context, r services.NewRecord) (*pb.Record, error)
	View(ctx context.Context, token string, ids []string, downloadDir string) ([]*services.ViewedRecord, error)
	Audit(ctx context.Context) ([]*pb.AuditEntry, error)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	auth    authAPI
	keys    keyAPI
	grants  grantAPI
	records recordAPI

	session *session.Session
	// wallet is set once the seed has been unlocked in this run.
	wallet *services.Wallet

	modeMu sync.Mutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database and connects the services to the server
// at cfg.ServerEndpointAddr.
func NewApp(ctx context.Context, cfg *config.Config, l logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(cfg.LocalDBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewSehatiClient(cfg.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var gate services.Gate
	if argv := cfg.BiometricArgv(); len(argv) > 0 {
		gate = biometric.NewGate(argv, cfg.BiometricTimeout, l)
	}

	return &App{
		config:  cfg,
		logger:  l.With("module", "cli"),
		db:      db,
		auth:    services.NewAuthService(apiClient, session.NewStore(db), l),
		keys:    services.NewKeyService(db, cfg, gate, l),
		grants:  services.NewGrantService(apiClient, grants.NewSQLiteRepository(db), l),
		records: services.NewRecordService(apiClient),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run blocks until the user leaves the REPL or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to SEHATI (type 'help' for commands)")

	if s, err := a.auth.Restore(ctx); err == nil {
		a.session = s
		fmt.Fprintf(a.out, "Resumed session for %s (%s)\n", s.WalletAddress, s.Role)
	} else if !errors.Is(err, session.ErrNoSession) {
		a.logger.Warn(ctx, "could not restore session", "error", err)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) close() {
	if a.wallet != nil {
		a.wallet.Wipe()
	}
	if err := a.auth.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing client", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && a.session.LoggedIn()
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		fmt.Fprintf(a.out, "\nSwitched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.isLoggedIn() {
		s = shortAddress(a.session.WalletAddress) + " " + a.session.Role + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) attachmentDir() string {
	return filepath.Join(filepath.Dir(a.config.LocalDBPath), "attachments")
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode accordingly until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.auth.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}
