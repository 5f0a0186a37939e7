// Package webtui serves the iTask TUI to a browser: each websocket gets its
// own TUI subprocess on a server-side PTY, drawn by xterm.js.
package webtui

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"itask-cli/internal/route"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr      string
	ConfigDir string
	BaseURL   string
	// Start is the first screen of every session; empty derives it from the
	// signed-in session.
	Start route.Route
	Log   *zap.Logger

	// Command builds the TUI process for args. Defaults to this executable.
	Command func(args []string) (*exec.Cmd, error)
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *zap.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Command == nil {
		cfg.Command = selfCommand
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log}, nil
}

func selfCommand(args []string) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return exec.Command(exe, args...), nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

// tuiArgs are the flags passed to each TUI subprocess. No subcommand runs the
// TUI; a start route becomes `open <path>`.
func (s *Server) tuiArgs() []string {
	var args []string
	if dir := strings.TrimSpace(s.cfg.ConfigDir); dir != "" {
		args = append(args, "--config-dir", dir)
	}
	if u := strings.TrimSpace(s.cfg.BaseURL); u != "" {
		args = append(args, "--base-url", u)
	}
	if s.cfg.Start != "" {
		args = append(args, "open", string(s.cfg.Start))
	}
	return args
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))

	return mux
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type terminalVM struct {
	BaseURL string
	Start   string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{
		BaseURL: strings.TrimSpace(s.cfg.BaseURL),
		Start:   string(s.cfg.Start),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", vm); err != nil {
		s.log.Warn("render terminal page failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
