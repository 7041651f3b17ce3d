package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type (
	// Service is one long-running delivery adapter (HTTP API, chat bot).
	Service interface {
		Name() string
		Init() error
		Run(ctx context.Context) error
		Stop()
	}
	Services interface {
		AddService(service ...Service)
		Run(ctx context.Context) error
	}
	Manager struct {
		log      Logger
		services []Service
		signals  []os.Signal
	}
)

func NewManager(log Logger) *Manager {
	return &Manager{log: log, signals: []os.Signal{os.Interrupt, syscall.SIGTERM}}
}

func (m *Manager) AddService(service ...Service) {
	m.services = append(m.services, service...)
}

// Run initialises every service, runs them, and blocks until a signal
// arrives, ctx is done, or a service fails. All started services are stopped
// before it returns.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("going to start %d services", len(m.services))
	for i, s := range m.services {
		if err := s.Init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				m.services[j].Stop()
			}
			return fmt.Errorf("failed to init %s: %w", s.Name(), err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, len(m.services))
	for _, s := range m.services {
		go func(s Service) {
			if err := s.Run(ctx); err != nil {
				failed <- fmt.Errorf("%s: %w", s.Name(), err)
			}
		}(s)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, m.signals...)
	defer signal.Stop(quit)

	var err error
	select {
	case sig := <-quit:
		m.log.Info("received %s", sig)
	case <-ctx.Done():
	case err = <-failed:
		m.log.Error("service stopped unexpectedly: %v", err)
	}

	m.stop()
	return err
}

func (m *Manager) stop() {
	m.log.Info("going to stop")
	for i := len(m.services) - 1; i >= 0; i-- {
		m.services[i].Stop()
	}
}
