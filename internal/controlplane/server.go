// Package controlplane exposes a mediator over HTTP so the shell can run in a
// separate process from the backend. Every pull method maps to a GET, every
// push method to a POST, and a websocket endpoint streams scene frames.
package controlplane

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// Server provides the HTTP API for a mediator backend.
type Server struct {
	med    mediator.Mediator
	addr   string
	logger *logging.Logger
	server *http.Server

	streamInterval time.Duration
}

// NewServer creates a new HTTP server around the given mediator.
func NewServer(med mediator.Mediator, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		med:            med,
		addr:           addr,
		logger:         logger.Named("controlplane"),
		streamInterval: 100 * time.Millisecond,
	}
}

// Start starts the HTTP server. It blocks until shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting missiondeck daemon", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Pull endpoints
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/scene", s.handleScene)
	mux.HandleFunc("/scene/stream", s.handleSceneStream)
	mux.HandleFunc("/graph", s.handleGraph)
	mux.HandleFunc("/templates", s.handleTemplates)
	mux.HandleFunc("/templates/", s.handleTemplateByName)
	mux.HandleFunc("/options", s.handleOptions)
	mux.HandleFunc("/simulation", s.handleSimulation)
	mux.HandleFunc("/simulation/step", s.handleSimulationStep)
	mux.HandleFunc("/planners", s.handlePlanners)

	// Push endpoints
	mux.HandleFunc("/commands", s.handleCommands)
	mux.HandleFunc("/events", s.handleEvents)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.med.FetchAgentData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.med.FetchTaskData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleScene handles GET /scene and GET /scene?t=<timestamp>.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var at *float64
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid timestamp", http.StatusBadRequest)
			return
		}
		at = &v
	}
	scene, err := s.med.FetchScene(at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.med.TaskGraphData())
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := s.med.TaskTemplates()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// handleTemplateByName handles GET /templates/{name}.
func (s *Server) handleTemplateByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/templates/")
	if name == "" {
		http.Error(w, "template name required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    name,
		"content": s.med.TemplateContent(name),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	taskIDs := s.med.TaskIDs()
	if taskIDs == nil {
		taskIDs = []string{}
	}
	commands := s.med.CommandOptions()
	if commands == nil {
		commands = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"task_ids":        taskIDs,
		"command_options": commands,
	})
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":      s.med.SimulationRunning(),
		"current_time": s.med.CurrentTime(),
	})
}

func (s *Server) handleSimulationStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stepped": s.med.StepSimulation()})
}

type plannerSelection struct {
	Side    schema.PlannerSide `json:"side"`
	Planner string             `json:"planner"`
}

// handlePlanners handles GET /planners (options) and POST /planners
// (selection).
func (s *Server) handlePlanners(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		red, blue := s.med.PlannerOptions()
		if red == nil {
			red = []string{}
		}
		if blue == nil {
			blue = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"red": red, "blue": blue})
	case http.MethodPost:
		var sel plannerSelection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if sel.Side != schema.PlannerRed && sel.Side != schema.PlannerBlue {
			http.Error(w, "side must be red or blue", http.StatusBadRequest)
			return
		}
		s.med.HandlePlannerSelection(sel.Side, sel.Planner)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCommands handles POST /commands: the body is a command envelope,
// decoded and forwarded to the mediator. The response reports acceptance.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	cmd, err := schema.DecodeCommand(body)
	if err != nil {
		s.logger.Warn("undecodable command", zap.Error(err))
		http.Error(w, "invalid command envelope", http.StatusBadRequest)
		return
	}

	accepted := s.med.ReceiveCommand(cmd)
	s.logger.Info("command forwarded",
		zap.String("kind", string(cmd.Kind())), zap.Bool("accepted", accepted))
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

// handleEvents handles POST /events: raw scene interaction events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var ev schema.SceneEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.med.HandleSceneEvent(ev)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
