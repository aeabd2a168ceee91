package scheduler

import (
	"github.com/cloudflare/cfssl/log"
	"github.com/go-co-op/gocron/v2"
)

// Job 周期任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
}

func NewManager() (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: s}, nil
}

// RegisterExpiryJob 注册过期扫描任务，上一次没跑完时跳过本次
func (m *Manager) RegisterExpiryJob(job *ExpiryJob) error {
	return m.register(job, func() { job.Execute() })
}

func (m *Manager) register(job Job, fn func()) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(fn),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Errorf("Failed to register job %s: %s", job.GetName(), err)
		return err
	}
	log.Infof("job %s registered", job.GetName())
	return nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
	log.Info("Task manager started")
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		log.Errorf("Failed to shutdown scheduler: %s", err)
	}
	log.Info("Task manager stopped")
}
