package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// Upstream is the analytics API the dashboard reads from.
// *upstream.Client implements it.
type Upstream interface {
	DashboardData(ctx context.Context, enteredRole string) ([]byte, error)
	RMData(ctx context.Context, pageIndex int, enteredRole string) (*upstream.RMPage, error)
	MatchedCustomers(ctx context.Context, product, bias string) ([]upstream.Customer, error)
	Recommendations(ctx context.Context, customerID string) (*upstream.Recommendations, error)
	TopInsights(ctx context.Context) (*roles.Insights, error)
	SankeyData(ctx context.Context) ([]upstream.SankeyRow, error)
	Roles(ctx context.Context) (roles.Permissions, error)
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	AuthCheck(ctx context.Context) error
	Logout(ctx context.Context) error
}

var _ Upstream = (*upstream.Client)(nil)

// ServiceConfig wires the collaborators of a Service. Only API is required.
type ServiceConfig struct {
	API      Upstream
	Catalog  *roles.Catalog   // default: embedded catalog
	Exporter *export.Exporter // default: no PDF renderer
	Renders  *RenderLimiter   // default: DefaultMaxConcurrentRenders
	Audit    AuditSink        // default: SlogAuditSink
}

// Service provides the dashboard's business logic, independent of HTTP.
type Service struct {
	api      Upstream
	exporter *export.Exporter
	renders  *RenderLimiter
	audit    AuditSink

	mu      sync.RWMutex
	catalog *roles.Catalog
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.API == nil {
		return nil, errors.New("service: upstream API is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = roles.DefaultCatalog()
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.New(nil, "")
	}
	if cfg.Renders == nil {
		cfg.Renders = NewRenderLimiter(DefaultMaxConcurrentRenders, DefaultMaxWaitTime)
	}
	if cfg.Audit == nil {
		cfg.Audit = SlogAuditSink{}
	}

	return &Service{
		api:      cfg.API,
		exporter: cfg.Exporter,
		renders:  cfg.Renders,
		audit:    cfg.Audit,
		catalog:  cfg.Catalog,
	}, nil
}

// Catalog returns the role catalog in use.
func (s *Service) Catalog() *roles.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Renders exposes the PDF render limiter for health reporting.
func (s *Service) Renders() *RenderLimiter {
	return s.renders
}

// SyncPermissions replaces the catalog's role permissions with those served
// by GET /roles. It is meant to run once at startup, before serving.
func (s *Service) SyncPermissions(ctx context.Context) error {
	perms, err := s.api.Roles(ctx)
	if err != nil {
		return fmt.Errorf("sync permissions: %w", err)
	}

	s.mu.Lock()
	s.catalog = s.catalog.WithPermissions(perms)
	s.mu.Unlock()

	logging.FromContext(ctx).Info("role permissions synced", "roles", len(perms))
	return nil
}

// Columns resolves the visible columns of a catalog table for role.
func (s *Service) Columns(table, role string) ([]roles.ColumnEntry, error) {
	return s.Catalog().Columns(table, role)
}

// sessionContext scopes ctx to the session's upstream cookies.
func sessionContext(ctx context.Context, st state.State) context.Context {
	if cookies := st.Cookies(); len(cookies) > 0 {
		return upstream.ContextWithCookies(ctx, cookies)
	}
	return ctx
}
