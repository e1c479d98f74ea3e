// Package web serves the HTML form that collects repositories and renders
// their event statistics.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Statistician computes statistics for a batch of repositories.
type Statistician interface {
	GetStatistics(ctx context.Context, repos []domain.RepositoryRef) ([]*domain.RepoStatistics, error)
}

// Server is the statistics web form.
type Server struct {
	stats  Statistician
	logger *log.Logger
	mux    *http.ServeMux
}

// New creates a Server. Metrics from gatherer are exposed on /metrics.
func New(stats Statistician, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	s := &Server{
		stats:  stats,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type indexView struct {
	Slots  []int
	Notice string
}

type statisticsView struct {
	Repository string
	FromCache  bool
	Rows       []statisticsRow
}

type statisticsRow struct {
	EventType string
	Seconds   float64
	Duration  time.Duration
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "index", newIndexView(""))
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	repos, err := reposFromForm(r)
	if err != nil {
		s.render(w, http.StatusOK, "index", newIndexView(fmt.Sprintf("Cannot look up %v.", err)))
		return
	}
	if len(repos) == 0 {
		s.render(w, http.StatusOK, "index", newIndexView("Enter at least one owner and repository."))
		return
	}

	results, err := s.stats.GetStatistics(r.Context(), repos)
	if err != nil {
		s.logger.Printf("statistics request failed: %v", err)
		http.Error(w, "failed to compute statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]statisticsView, 0, len(results))
	for _, result := range results {
		view := statisticsView{Repository: result.Repository.String(), FromCache: result.FromCache}
		for _, eventType := range result.AverageTimes.EventTypes() {
			seconds := result.AverageTimes[eventType]
			view.Rows = append(view.Rows, statisticsRow{
				EventType: eventType,
				Seconds:   seconds,
				Duration:  time.Duration(seconds * float64(time.Second)).Round(time.Second),
			})
		}
		views = append(views, view)
	}
	s.render(w, http.StatusOK, "statistics", views)
}

// reposFromForm collects the username<i>/repository<i> pairs where both
// fields are filled in. Any such pair that is not a valid repository fails
// the whole form.
func reposFromForm(r *http.Request) ([]domain.RepositoryRef, error) {
	var repos []domain.RepositoryRef
	for i := 1; i <= domain.MaxRepositories; i++ {
		owner := strings.TrimSpace(r.PostFormValue(fmt.Sprintf("username%d", i)))
		name := strings.TrimSpace(r.PostFormValue(fmt.Sprintf("repository%d", i)))
		if owner == "" || name == "" {
			continue
		}
		repo := domain.RepositoryRef{Owner: owner, Name: name}
		if err := repo.Validate(); err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func newIndexView(notice string) indexView {
	slots := make([]int, domain.MaxRepositories)
	for i := range slots {
		slots[i] = i + 1
	}
	return indexView{Slots: slots, Notice: notice}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Printf("render %s: %v", name, err)
	}
}
