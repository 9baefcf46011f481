package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.battle/host_key.
	HostKeyPath string

	// DBPath is the path to the results database.
	DBPath string

	// Engine is the battle configuration every session starts from.
	Engine config.Config

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.battle/results.db",
		IdleTimeout: 30 * time.Minute,
		Engine:      config.DefaultConfig(),
	}
}

// SSHServer wraps a Wish SSH server that hosts battle sessions.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "battle-ssh",
	})
	if level, err := log.ParseLevel(cfg.Engine.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open results database", "error", err)
		// Continue without storage
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".battle", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	// Create Wish server options
	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	// Create the server
	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	// Size the session to the PTY; every session gets its own seed
	cfg := s.config.Engine
	cfg.Runtime.ScreenW = pty.Window.Width
	cfg.Runtime.ScreenH = pty.Window.Height
	cfg.Runtime.Seed = 0

	// Create session model that handles menu + battle flow
	model := NewSessionModel(s.store, cfg, sshSession.User(), s.logger)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionModel manages the full battle session flow: menu -> battle -> menu,
// with the stats screen reachable from the menu.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	store     *storage.Store
	config    config.Config
	username  string
	sessionID string
	logger    *log.Logger
	menu      MenuModel
	battle    *BattleModel
	stats     *StatsModel
	err       error
	quitting  bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(store *storage.Store, cfg config.Config, username string, logger *log.Logger) SessionModel {
	sessionID := uuid.NewString()
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return SessionModel{
		store:     store,
		config:    cfg,
		username:  username,
		sessionID: sessionID,
		logger:    logger.With("user", username, "session", sessionID),
		menu:      NewMenuModel(cfg),
	}
}

// saver returns the store as a ResultSaver, or nil without a store.
func (m SessionModel) saver() moves.ResultSaver {
	if m.store == nil {
		return nil
	}
	return m.store
}

// source returns the store as a StatsSource, or nil without a store.
func (m SessionModel) source() StatsSource {
	if m.store == nil {
		return nil
	}
	return m.store
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.Runtime.ScreenW = wsm.Width
		m.config.Runtime.ScreenH = wsm.Height
	}

	switch {
	case m.battle != nil:
		return m.updateBattle(msg)
	case m.stats != nil:
		return m.updateStats(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsStats() {
		m.config = m.menu.Config()
		stats := NewStatsModel(m.source(), m.config.Runtime.ScreenW, m.config.Runtime.ScreenH)
		m.stats = &stats
		return m, stats.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		m.config = m.menu.Config() // Difficulty and size may have changed

		battleModel, err := NewBattleModel(BattleOptions{
			Move:   selected.MoveID,
			Config: m.config,
			Saver:  m.saver(),
			Logger: m.logger,
		})
		if err != nil {
			// Shouldn't happen since menu only shows registered moves
			m.logger.Error("cannot start battle", "move", selected.MoveID, "error", err)
			m.err = err
			m.menu = NewMenuModel(m.config)
			return m, nil
		}

		m.logger.Info("battle started", "move", selected.MoveID, "difficulty", m.config.Difficulty.Preset)
		m.err = nil
		m.battle = &battleModel
		return m, m.battle.Init()
	}

	return m, cmd
}

// updateBattle handles updates when in battle mode.
func (m SessionModel) updateBattle(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.battle.Update(msg)
	if battleModel, ok := newModel.(BattleModel); ok {
		m.battle = &battleModel
	}

	if m.battle.BackToMenu() {
		m.battle = nil
		m.menu = NewMenuModel(m.config)
		return m, m.menu.Init()
	}

	if m.battle.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// updateStats handles updates when the stats screen is open.
func (m SessionModel) updateStats(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.stats.Update(msg)
	if statsModel, ok := newModel.(StatsModel); ok {
		m.stats = &statsModel
	}

	if m.stats.IsGoingBack() {
		m.stats = nil
		m.menu = NewMenuModel(m.config)
		return m, m.menu.Init()
	}

	if m.stats.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch {
	case m.battle != nil:
		return m.battle.View()
	case m.stats != nil:
		return m.stats.View()
	}

	view := m.menu.View()
	if m.err != nil {
		view += "\n" + centerText(theme.HPLow.Render(m.err.Error()), m.config.Runtime.ScreenW)
	}
	return view
}
