package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"generator_ledger/internal/models"
	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockShifts struct {
	result    service.ShiftResult
	startErr  error
	stopErr   error
	lastStart service.StartRequest
	lastStop  service.StopRequest
	startN    int
	stopN     int
}

func (m *mockShifts) Start(_ context.Context, req service.StartRequest) (service.ShiftResult, error) {
	m.startN++
	m.lastStart = req
	if m.startErr != nil {
		return service.ShiftResult{}, m.startErr
	}
	return m.result, nil
}
func (m *mockShifts) Stop(_ context.Context, req service.StopRequest) (service.ShiftResult, error) {
	m.stopN++
	m.lastStop = req
	if m.stopErr != nil {
		return service.ShiftResult{}, m.stopErr
	}
	return m.result, nil
}
func (m *mockShifts) ForceOff(context.Context, string, models.EventKind) (service.ShiftResult, error) {
	return m.result, nil
}

type mockHealth struct {
	state     models.HealthState
	err       error
	lastActor string
}

func (m *mockHealth) MarkOK(context.Context) error { return nil }
func (m *mockHealth) MarkFail(context.Context) error { return nil }
func (m *mockHealth) IsOffline(context.Context) (bool, error) { return m.state.Offline, m.err }
func (m *mockHealth) ShouldProbe(context.Context) (bool, error) { return !m.state.Offline, m.err }
func (m *mockHealth) Snapshot(context.Context) (models.HealthState, error) { return m.state, m.err }
func (m *mockHealth) ForceOffline(_ context.Context, actor string) error {
	m.lastActor = actor
	m.state.ForcedOffline, m.state.Offline = true, true
	return m.err
}
func (m *mockHealth) ForceOnline(_ context.Context, actor string) error {
	m.lastActor = actor
	m.state = models.HealthState{}
	return m.err
}

type mockReconciler struct {
	report     service.CycleReport
	err        error
	refreshErr error
	refreshN   int
}

func (m *mockReconciler) RunCycle(context.Context) (service.CycleReport, error) {
	return m.report, m.err
}
func (m *mockReconciler) RefreshCanonical(context.Context) error {
	m.refreshN++
	return m.refreshErr
}
func (m *mockReconciler) Run(context.Context) {}

type mockFuel struct {
	result service.RefuelResult
	alert  service.FuelAlert
	err    error
	last   service.RefuelRequest
}

func (m *mockFuel) Refuel(_ context.Context, req service.RefuelRequest) (service.RefuelResult, error) {
	m.last = req
	return m.result, m.err
}
func (m *mockFuel) Consumption(d time.Duration) float64 { return d.Hours() }
func (m *mockFuel) CheckLow(context.Context) (service.FuelAlert, error) {
	return m.alert, m.err
}

type mockMaintenance struct {
	status    []models.MaintenanceStatus
	history   []models.MaintenanceRecord
	err       error
	lastKind  models.MaintenanceKind
	lastLimit int
}

func (m *mockMaintenance) Record(_ context.Context, kind models.MaintenanceKind, actor string) (models.MaintenanceRecord, error) {
	m.lastKind = kind
	return models.MaintenanceRecord{ID: 1, Kind: kind, Actor: actor}, m.err
}
func (m *mockMaintenance) Status(context.Context) ([]models.MaintenanceStatus, error) {
	return m.status, m.err
}
func (m *mockMaintenance) History(_ context.Context, limit int) ([]models.MaintenanceRecord, error) {
	m.lastLimit = limit
	return m.history, m.err
}

// mockMonitoring is read from the websocket goroutine as well as the test.
type mockMonitoring struct {
	mu    sync.Mutex
	state service.Snapshot
	err   error
	calls int
}

func (m *mockMonitoring) GetState(context.Context) (service.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.state, m.err
}

func (m *mockMonitoring) set(s service.Snapshot) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

type mockEventLog struct {
	resp     []models.EventLogEntry
	err      error
	last     service.LogFilter
	unsynced int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.EventLogEntry, error) {
	m.last = f
	return m.resp, m.err
}
func (m *mockEventLog) Unsynced(context.Context) (int, error) { return m.unsynced, m.err }

type mockReference struct {
	drivers   []string
	personnel []string
	err       error

	bound      map[int]string
	bindErr    error
	lookupErr  error
	lastBindID int
}

func (m *mockReference) Drivers(context.Context) ([]string, error) { return m.drivers, m.err }
func (m *mockReference) Personnel(context.Context) ([]string, error) { return m.personnel, m.err }
func (m *mockReference) BindPersonnel(_ context.Context, userID int, name string) error {
	m.lastBindID = userID
	if m.bindErr != nil {
		return m.bindErr
	}
	if m.bound == nil {
		m.bound = map[int]string{}
	}
	m.bound[userID] = name
	return nil
}
func (m *mockReference) PersonnelFor(_ context.Context, userID int) (string, error) {
	return m.bound[userID], m.lookupErr
}

type mockCorrection struct {
	state models.GeneratorState
	err   error
	last  service.CorrectionRequest
	n     int
}

func (m *mockCorrection) Correct(_ context.Context, req service.CorrectionRequest) (models.GeneratorState, error) {
	m.n++
	m.last = req
	return m.state, m.err
}

type mockScheduler struct {
	open   service.OpenShiftReport
	result service.ShiftResult
	err    error
}

func (m *mockScheduler) OpenShiftPastEnd(context.Context) (service.OpenShiftReport, error) {
	return m.open, m.err
}
func (m *mockScheduler) AutoClose(context.Context) (service.ShiftResult, error) {
	return m.result, m.err
}
func (m *mockScheduler) Run(context.Context, time.Duration) {}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, time.UTC)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
