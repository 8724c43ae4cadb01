package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/pkg/logger"
	"gorm.io/gorm"
)

const (
	progressTickInterval = 50 * time.Millisecond
	warmupGap            = 200 * time.Millisecond
)

// DisplayService drives the public dashboard: it serves cached metric
// snapshots, rotates between the two dashboard pages, tracks the slide
// progress bar, and schedules periodic re-aggregation.
type DisplayService struct {
	db       *gorm.DB
	settings *SettingsService
	agg      *AggregationService
	cache    *SnapshotCache
	email    *EmailService

	mu             sync.Mutex
	currentPage    int
	slideStartedAt time.Time
	slideDuration  time.Duration
	autoSlide      bool

	rotationStop chan struct{}
	sweepStop    chan struct{}
	scheduler    *cron.Cron
	refreshEntry cron.EntryID
	started      bool
}

func NewDisplayService(db *gorm.DB) *DisplayService {
	return &DisplayService{
		db:          db,
		settings:    NewSettingsService(db),
		agg:         NewAggregationService(db),
		cache:       NewSnapshotCache(),
		email:       NewEmailService(db),
		currentPage: 1,
	}
}

// Snapshot returns the aggregated snapshot for one metric, served from
// cache when fresh.
func (s *DisplayService) Snapshot(metric *models.MetricConfig) (*MetricSnapshot, error) {
	if cached := s.cache.Get(metric.ID); cached != nil {
		return cached, nil
	}

	snap, err := s.agg.BuildSnapshot(metric)
	if err != nil {
		return nil, err
	}
	s.cache.Put(metric.ID, snap)
	return snap, nil
}

// PageSnapshots returns the snapshots for one dashboard page in display
// order, filling the cache as it goes. A metric whose series cannot be
// read degrades to a no_data card; one bad metric never blanks the
// whole page.
func (s *DisplayService) PageSnapshots(page int) ([]*MetricSnapshot, error) {
	var metrics []models.MetricConfig
	if err := s.db.Where("is_active = ? AND page_number = ?", true, page).
		Order("display_order ASC, id ASC").
		Find(&metrics).Error; err != nil {
		return nil, err
	}

	snapshots := make([]*MetricSnapshot, 0, len(metrics))
	for i := range metrics {
		snap, err := s.Snapshot(&metrics[i])
		if err != nil {
			logger.Warnf("[Display] Snapshot failed for metric %d: %v", metrics[i].ID, err)
			snap = SnapshotFromPoints(&metrics[i], nil)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// DashboardState is everything the display frontend needs for one
// render: the current page, its metrics, slide progress, and the
// display settings.
type DashboardState struct {
	Page      int               `json:"page"`
	Progress  float64           `json:"progress"` // 0-100
	AutoSlide bool              `json:"auto_slide"`
	Settings  *DisplaySettings  `json:"settings"`
	Metrics   []*MetricSnapshot `json:"metrics"`
}

// Dashboard returns the current display state.
func (s *DisplayService) Dashboard() (*DashboardState, error) {
	s.mu.Lock()
	page := s.currentPage
	progress := s.progressLocked()
	autoSlide := s.autoSlide
	s.mu.Unlock()

	snapshots, err := s.PageSnapshots(page)
	if err != nil {
		return nil, err
	}

	return &DashboardState{
		Page:      page,
		Progress:  progress,
		AutoSlide: autoSlide,
		Settings:  s.settings.GetDisplaySettings(),
		Metrics:   snapshots,
	}, nil
}

// CurrentPage returns the page the rotation is showing.
func (s *DisplayService) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// Progress returns how far through the current slide the rotation is,
// as a 0-100 value.
func (s *DisplayService) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *DisplayService) progressLocked() float64 {
	if !s.autoSlide || s.slideDuration <= 0 {
		return 0
	}
	elapsed := time.Since(s.slideStartedAt)
	p := float64(elapsed) / float64(s.slideDuration) * 100
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// SetPage forces the display to a page and restarts the slide timer.
// Setting the page it is already on still resets the timer, so a manual
// selection always gets a full slide.
func (s *DisplayService) SetPage(page int) error {
	if page != 1 && page != 2 {
		return fmt.Errorf("page must be 1 or 2")
	}

	s.mu.Lock()
	s.currentPage = page
	s.slideStartedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// AdvancePage flips to the other page and restarts the slide timer.
func (s *DisplayService) AdvancePage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPage = 3 - s.currentPage
	s.slideStartedAt = time.Now()
	return s.currentPage
}

// InvalidateMetric drops a metric's cached snapshot so the next read
// re-aggregates. Called after every data-point or metric-config write.
func (s *DisplayService) InvalidateMetric(metricID uint) {
	s.cache.Invalidate(metricID)
}

// InvalidateAll drops the whole snapshot cache.
func (s *DisplayService) InvalidateAll() {
	s.cache.Clear()
}

// ProcessRefreshTask re-aggregates the metric named by the task, or all
// active metrics when the task has no metric ID. This is the processor
// wired into both the sync queue and the async worker.
func (s *DisplayService) ProcessRefreshTask(ctx context.Context, task *RefreshTask) error {
	if task.MetricID != 0 {
		snap, err := s.refreshMetric(task.MetricID)
		if err != nil {
			return err
		}
		// Alert only on refreshes caused by a data write, so a stale
		// critical metric does not re-alert on every schedule tick.
		if task.Reason == "data_write" && snap.Status == StatusCritical {
			if err := s.email.SendCriticalAlert(snap); err != nil {
				logger.Warnf("[Display] Critical alert for metric %d failed: %v", task.MetricID, err)
			}
		}
		return nil
	}

	var metrics []models.MetricConfig
	if err := s.db.Where("is_active = ?", true).Find(&metrics).Error; err != nil {
		return err
	}
	for i := range metrics {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.refreshMetric(metrics[i].ID); err != nil {
			logger.Warnf("[Display] Refresh failed for metric %d: %v", metrics[i].ID, err)
		}
	}
	return nil
}

func (s *DisplayService) refreshMetric(metricID uint) (*MetricSnapshot, error) {
	var metric models.MetricConfig
	if err := s.db.First(&metric, metricID).Error; err != nil {
		return nil, err
	}
	snap, err := s.agg.BuildSnapshot(&metric)
	if err != nil {
		return nil, err
	}
	s.cache.Put(metricID, snap)
	return snap, nil
}

// Start launches the rotation loop, the cache sweeper, the periodic
// refresh schedule, and pre-warms the cache for the first page.
func (s *DisplayService) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true

	ds := s.settings.GetDisplaySettings()
	s.slideDuration = time.Duration(ds.SlideDuration) * time.Second
	s.autoSlide = ds.AutoSlide
	s.slideStartedAt = time.Now()
	s.rotationStop = make(chan struct{})
	s.sweepStop = make(chan struct{})
	s.mu.Unlock()

	go s.rotationLoop(s.rotationStop)
	s.cache.StartSweeper(s.sweepStop)
	s.startRefreshSchedule(ds)
	go s.warmup()

	logger.Infof("[Display] Started: slide=%ds, auto_slide=%v, update_interval=%dm",
		ds.SlideDuration, ds.AutoSlide, ds.UpdateInterval)
}

// Stop halts all background work.
func (s *DisplayService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	close(s.rotationStop)
	close(s.sweepStop)
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	logger.Infof("[Display] Stopped")
}

// ApplySettings re-reads the display settings and restarts the timers.
// Called after a settings update so new durations take effect without a
// restart.
func (s *DisplayService) ApplySettings() {
	ds := s.settings.GetDisplaySettings()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.slideDuration = time.Duration(ds.SlideDuration) * time.Second
	s.autoSlide = ds.AutoSlide
	s.slideStartedAt = time.Now()

	close(s.rotationStop)
	s.rotationStop = make(chan struct{})
	stop := s.rotationStop
	s.mu.Unlock()

	go s.rotationLoop(stop)
	s.startRefreshSchedule(ds)

	logger.Infof("[Display] Settings applied: slide=%ds, auto_slide=%v, update_interval=%dm",
		ds.SlideDuration, ds.AutoSlide, ds.UpdateInterval)
}

// rotationLoop samples slide progress and flips the page when a slide
// completes. Sampling rather than a single long timer keeps the
// progress value fresh for polling clients and makes timer restarts
// (page forced, settings changed) cheap.
func (s *DisplayService) rotationLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(progressTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.autoSlide && s.slideDuration > 0 && time.Since(s.slideStartedAt) >= s.slideDuration {
				s.currentPage = 3 - s.currentPage
				s.slideStartedAt = time.Now()
			}
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// startRefreshSchedule (re)creates the cron schedule that enqueues a
// full refresh every update_interval minutes.
func (s *DisplayService) startRefreshSchedule(ds *DisplaySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		s.scheduler = cron.New()
		s.scheduler.Start()
	}
	if s.refreshEntry != 0 {
		s.scheduler.Remove(s.refreshEntry)
		s.refreshEntry = 0
	}
	if !ds.AutoUpdate {
		return
	}

	spec := fmt.Sprintf("@every %dm", ds.UpdateInterval)
	entryID, err := s.scheduler.AddFunc(spec, func() {
		if queue := GetTaskQueue(); queue != nil {
			if err := queue.Enqueue(NewRefreshTask(0, "schedule")); err != nil {
				logger.Warnf("[Display] Failed to enqueue scheduled refresh: %v", err)
			}
		}
	})
	if err != nil {
		logger.Errorf("[Display] Failed to schedule refresh: %v", err)
		return
	}
	s.refreshEntry = entryID
}

// warmup pre-aggregates the first page's metrics with a small gap
// between each, so startup does not hammer the database.
func (s *DisplayService) warmup() {
	var metrics []models.MetricConfig
	if err := s.db.Where("is_active = ? AND page_number = ?", true, 1).
		Order("display_order ASC, id ASC").
		Limit(6).
		Find(&metrics).Error; err != nil {
		logger.Warnf("[Display] Warmup query failed: %v", err)
		return
	}

	for i := range metrics {
		if _, err := s.Snapshot(&metrics[i]); err != nil {
			logger.Warnf("[Display] Warmup failed for metric %d: %v", metrics[i].ID, err)
		}
		time.Sleep(warmupGap)
	}
}
