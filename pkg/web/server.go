package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/analyzer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/export"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/models"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

//go:embed templates/*
var templates embed.FS

// maxUploadBytes caps the size of an uploaded log file.
const maxUploadBytes = 10 << 20

const defaultTitle = "Boat Data Analyzer"

// Server serves the upload form, runs the classifier on uploaded logs and
// offers the annotated CSV for download.
type Server struct {
	cfg   models.ServerConfig
	store *export.Store
	log   *zap.Logger
	tmpl  *template.Template
}

// session carries the operator-entered test metadata back onto the page.
type session struct {
	Date    string
	Time    string
	Boat    string
	Ambient string
}

// page is the template payload for every response.
type page struct {
	Status     string
	Error      string
	Session    *session
	Columns    []string
	Rows       [][]string
	TotalRows  int
	Truncated  bool
	DownloadID string
}

// NewServer builds a server from parsed configuration and a result store.
func NewServer(cfg models.ServerConfig, store *export.Store, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Server{
		cfg:   cfg,
		store: store,
		log:   logger,
		tmpl:  tmpl,
	}, nil
}

// Handler returns the route table. Exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/download", s.handleDownload)
	return mux
}

// Start runs the server until it fails or the process is killed.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	url := fmt.Sprintf("http://localhost%s", addr)

	pterm.DefaultHeader.WithFullWidth().
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("🚤 Boat Data Analyzer Started")

	pterm.Info.Printf("Opening web interface at %s\n", url)
	pterm.Info.Printf("Annotated results stored in %s\n", s.store.Dir())
	pterm.Info.Println("Press Ctrl+C to stop the server")
	pterm.Println()

	openBrowser(url)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("server listening", zap.String("addr", addr))
	return server.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, &page{Status: defaultTitle})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderError(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	sess := &session{
		Date:    r.FormValue("date_test"),
		Time:    r.FormValue("heure_session"),
		Boat:    r.FormValue("num_embarcation"),
		Ambient: r.FormValue("ambient_temp"),
	}

	ambient, err := strconv.ParseFloat(sess.Ambient, 64)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid ambient temperature")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, "missing log file")
		return
	}
	defer file.Close()

	table, err := telemetry.ParseCSV(file)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, fmt.Sprintf("unreadable CSV: %v", err))
		return
	}

	res, err := analyzer.Analyze(table, ambient, s.cfg.Thresholds)
	if err != nil {
		var missing *analyzer.MissingColumnError
		if errors.As(err, &missing) || errors.Is(err, analyzer.ErrNoLambdaChannel) {
			s.renderError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error("analysis failed", zap.String("file", header.Filename), zap.Error(err))
		s.renderError(w, http.StatusInternalServerError, "internal error")
		return
	}

	id, err := s.store.Save(table, res)
	if err != nil {
		s.log.Error("saving result failed", zap.Error(err))
		s.renderError(w, http.StatusInternalServerError, "could not store result")
		return
	}

	s.log.Info("log analyzed",
		zap.String("file", header.Filename),
		zap.Int("rows", table.Len()),
		zap.String("verdict", res.Verdict),
		zap.String("result_id", id),
		zap.Duration("took", time.Since(start)),
	)

	s.render(w, http.StatusOK, &page{
		Status:     res.Verdict,
		Session:    sess,
		Columns:    export.AnnotatedHeader(table),
		Rows:       export.Preview(table, res, s.cfg.PreviewRows),
		TotalRows:  table.Len(),
		Truncated:  table.Len() > s.cfg.PreviewRows,
		DownloadID: id,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	path, err := s.store.Path(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "analyse_"+id+".csv"))
	http.ServeFile(w, r, path)
}

func (s *Server) render(w http.ResponseWriter, status int, p *page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, p); err != nil {
		s.log.Error("rendering page failed", zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	s.render(w, status, &page{Status: defaultTitle, Error: msg})
}
