package repositories

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/pendeploy-nightly/models"
)

// Operations recorded in the call log
const (
	OpGetService   = "get_service"
	OpClearCache   = "clear_cache"
	OpCreateDeploy = "create_deploy"
	OpGetDeploy    = "get_deploy"
)

const httpScriptPrefix = "http:"

// DefaultStatusScript is what a deploy goes through when a service has no script
var DefaultStatusScript = []string{
	string(models.DeployStatusQueued),
	string(models.DeployStatusBuildInProgress),
	string(models.DeployStatusUpdateInProgress),
	string(models.DeployStatusLive),
}

// ServiceBehavior controls how the simulated platform answers for one service.
// Zero status fields mean the platform's usual answer.
type ServiceBehavior struct {
	GetServiceStatus   int
	ClearCacheStatus   int
	CreateDeployStatus int
	OmitDeployID       bool
	// StatusScript lists the answers to successive status polls. An entry is
	// either a deploy status or "http:<code>"; the last entry repeats.
	StatusScript []string
}

// PlatformService is a service known to the simulated platform
type PlatformService struct {
	ID       string
	Name     string
	Type     string
	Behavior ServiceBehavior
}

// PlatformDeploy is a deploy created on the simulated platform
type PlatformDeploy struct {
	ID         string
	ServiceID  string
	ClearCache string
	Status     string
	Polls      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Call is one request the simulated platform received
type Call struct {
	Op        string
	ServiceID string
	DeployID  string
}

// PlatformStore keeps the simulated platform state in memory
type PlatformStore struct {
	mu       sync.Mutex
	services map[string]*PlatformService
	deploys  map[string]*PlatformDeploy
	calls    []Call
}

// NewPlatformStore creates an empty store
func NewPlatformStore() *PlatformStore {
	return &PlatformStore{
		services: make(map[string]*PlatformService),
		deploys:  make(map[string]*PlatformDeploy),
	}
}

// AddService registers or replaces a service
func (s *PlatformStore) AddService(service PlatformService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if service.Type == "" {
		service.Type = "web_service"
	}
	s.services[service.ID] = &service
}

// FindService retrieves a service by its ID
func (s *PlatformStore) FindService(id string) (PlatformService, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	service, ok := s.services[id]
	if !ok {
		return PlatformService{}, false
	}
	return *service, true
}

// RecordCall appends a request to the call log
func (s *PlatformStore) RecordCall(call Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns a copy of the call log
func (s *PlatformStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// FindDeploy retrieves a deploy by its ID
func (s *PlatformStore) FindDeploy(id string) (PlatformDeploy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deploy, ok := s.deploys[id]
	if !ok {
		return PlatformDeploy{}, false
	}
	return *deploy, true
}

// CountCalls returns how many requests of the given operation were received
func (s *PlatformStore) CountCalls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, call := range s.calls {
		if call.Op == op {
			count++
		}
	}
	return count
}

// ClearCache returns the status the platform answers a cache clear with
func (s *PlatformStore) ClearCache(service PlatformService) int {
	if service.Behavior.ClearCacheStatus != 0 {
		return service.Behavior.ClearCacheStatus
	}
	return http.StatusAccepted
}

// CreateDeploy creates a deploy for the service. It returns the deploy and the
// status to answer with; no deploy is created when that status is not a success.
func (s *PlatformStore) CreateDeploy(service PlatformService, clearCache string) (*PlatformDeploy, int) {
	code := service.Behavior.CreateDeployStatus
	if code == 0 {
		code = http.StatusCreated
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return nil, code
	}

	now := time.Now().UTC()
	deploy := &PlatformDeploy{
		ID:         "dep-" + xid.New().String(),
		ServiceID:  service.ID,
		ClearCache: clearCache,
		Status:     string(models.DeployStatusCreated),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.deploys[deploy.ID] = deploy
	if service.Behavior.OmitDeployID {
		// Clients fall back to the placeholder id, so make it resolvable.
		s.deploys[models.UnknownDeployID] = deploy
	}

	copied := *deploy
	return &copied, code
}

// NextStatus advances the deploy along its service's script. It returns the
// deploy, the HTTP status to answer with, and whether the deploy exists.
func (s *PlatformStore) NextStatus(service PlatformService, deployID string) (PlatformDeploy, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deploy, ok := s.deploys[deployID]
	if !ok || deploy.ServiceID != service.ID {
		return PlatformDeploy{}, http.StatusNotFound, false
	}

	script := service.Behavior.StatusScript
	if len(script) == 0 {
		script = DefaultStatusScript
	}
	index := deploy.Polls
	if index >= len(script) {
		index = len(script) - 1
	}
	deploy.Polls++

	entry := script[index]
	if strings.HasPrefix(entry, httpScriptPrefix) {
		code, err := strconv.Atoi(strings.TrimPrefix(entry, httpScriptPrefix))
		if err != nil {
			code = http.StatusInternalServerError
		}
		return *deploy, code, true
	}

	deploy.Status = entry
	deploy.UpdatedAt = time.Now().UTC()
	return *deploy, http.StatusOK, true
}

// ParseStatusScript splits a comma separated script such as "queued,http:503,live"
func ParseStatusScript(raw string) []string {
	var script []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			script = append(script, entry)
		}
	}
	return script
}
