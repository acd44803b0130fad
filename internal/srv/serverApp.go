package srv

import (
	"context"
	"fmt"
	"github.com/jypelle/nashat/internal/images"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/device"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/jypelle/nashat/internal/srv/monitor"
	"github.com/jypelle/nashat/internal/srv/telemetry"
	"github.com/jypelle/nashat/internal/version"
	"github.com/sirupsen/logrus"
	"image"
	"sync"
	"time"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	fanDevice     *device.Fan
	buttonsDevice *device.Buttons
	monitor       *monitor.Monitor
	recorder      telemetry.Recorder
	layouts       *images.Layouts

	render    *renderScheduler
	regulator *fanRegulator
	input     *inputDispatcher

	lock     sync.Mutex
	cancel   context.CancelFunc
	abortErr error

	shutdownOnce sync.Once
}

// NewServerApp loads the configuration and opens every device. Any error is a
// startup failure.
func NewServerApp(configDir string, debugMode bool, simulationMode bool) (*ServerApp, error) {
	logrus.Debugf("Creation of %s server %s ...", version.AppName, version.AppVersion.String())

	serverConfig, err := config.NewServerConfig(configDir, debugMode, simulationMode)
	if err != nil {
		return nil, err
	}

	app := &ServerApp{
		ServerConfig: serverConfig,
	}

	if app.layouts, err = images.LoadLayouts(app.Display.BackgroundDir, frameWidth, frameHeight); err != nil {
		return nil, &config.ConfigurationError{Resource: "background layouts", Err: err}
	}
	if app.recorder, err = telemetry.NewRecorder(app.Telemetry); err != nil {
		return nil, &config.ConfigurationError{Resource: "telemetry", Err: err}
	}

	if app.displayDevice, err = device.NewDisplay(app.Display, app.SimulationMode); err != nil {
		app.recorder.Close()
		return nil, err
	}
	if app.fanDevice, err = device.NewFan(app.Fan, app.SimulationMode); err != nil {
		app.displayDevice.Stop()
		app.recorder.Close()
		return nil, err
	}
	if app.buttonsDevice, err = device.NewButtons(app.Button, app.SimulationMode); err != nil {
		app.fanDevice.Stop()
		app.displayDevice.Stop()
		app.recorder.Close()
		return nil, err
	}
	app.monitor = monitor.NewMonitor(app.Monitor, app.ServerState)

	dim := newDimmer(app.ServerState, app.displayDevice, app.Display.DimLevel, app.Display.DimTimeout)
	app.render = &renderScheduler{
		state:  app.ServerState,
		panel:  app.displayDevice,
		dimmer: dim,
		compose: func(snapshot *metric.Snapshot, view renderView) image.Image {
			return composeFrame(snapshot, view, app.layouts)
		},
		staleAfter:      app.Render.StaleAfter,
		clearErrorAfter: app.Render.ClearErrorAfter,
	}
	app.regulator = newFanRegulator(app.ServerState, app.fanDevice, app.FanSettings(), app.recorder)
	app.input = &inputDispatcher{
		state:  app.ServerState,
		dimmer: dim,
		short:  app.Button.ShortPress,
		long:   app.Button.LongPress,
	}

	logrus.Debugln("Server created")
	return app, nil
}

// Run brings the panel and the fan up, then runs the monitor, input, fan and
// render loops until ctx is cancelled or a loop aborts. It returns the abort
// error, if any.
func (s *ServerApp) Run(ctx context.Context) error {
	logrus.Printf("Starting %s server ...", version.AppName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.lock.Lock()
	s.cancel = cancel
	s.lock.Unlock()

	logrus.Printf("Starting devices ...")
	if err := s.displayDevice.Start(); err != nil {
		return err
	}
	if err := s.displayDevice.ShowImage(composeSplash()); err != nil {
		logrus.WithError(err).Warn("Unable to show startup screen")
	}
	if err := s.fanDevice.Start(); err != nil {
		return err
	}
	s.ServerState.Touch(time.Now())

	var wg sync.WaitGroup
	loops := []struct {
		name string
		run  func(ctx context.Context)
	}{
		{"monitor", s.monitor.Run},
		{"buttons", s.buttonsDevice.Run},
		{"input", s.inputLoop},
		{"fan", s.fanLoop},
		{"render", s.renderLoop},
	}
	for _, loop := range loops {
		wg.Add(1)
		go s.supervise(ctx, &wg, loop.name, loop.run)
	}

	logrus.Printf("Server started")
	wg.Wait()

	s.lock.Lock()
	defer s.lock.Unlock()
	return s.abortErr
}

// supervise runs one loop and turns a panic into an abort.
func (s *ServerApp) supervise(ctx context.Context, wg *sync.WaitGroup, name string, run func(ctx context.Context)) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.Abort(fmt.Errorf("%s loop: %v", name, r))
		}
	}()
	run(ctx)
	logrus.Debugf("%s loop stopped", name)
}

// Abort stops every loop. Only the first error is kept.
func (s *ServerApp) Abort(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.abortErr == nil {
		logrus.WithError(err).Error("Abort server")
		s.abortErr = err
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// Shutdown releases the hardware: fan first, then the panel. It is safe to
// call more than once.
func (s *ServerApp) Shutdown() {
	s.shutdownOnce.Do(func() {
		logrus.Printf("Stopping %s server ...", version.AppName)

		if err := s.fanDevice.Stop(); err != nil {
			logrus.WithError(err).Error("Unable to stop fan")
		}
		if err := s.displayDevice.Stop(); err != nil {
			logrus.WithError(err).Error("Unable to stop display")
		}
		if err := s.recorder.Close(); err != nil {
			logrus.WithError(err).Error("Unable to close telemetry")
		}

		// Flush state backup
		s.ServerState.FlushSave()

		logrus.Printf("Server stopped")
	})
}
