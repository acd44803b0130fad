package config

import (
	_ "embed"
	"fmt"
	"github.com/jypelle/nashat/internal/srv/fancontrol"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	Display   DisplayParam   `yaml:"display"`
	Fan       FanParam       `yaml:"fan"`
	Button    ButtonParam    `yaml:"button"`
	Render    RenderParam    `yaml:"render"`
	Monitor   MonitorParam   `yaml:"monitor"`
	Telemetry TelemetryParam `yaml:"telemetry"`
}

type DisplayParam struct {
	SpiPort        string        `yaml:"spi_port"`
	SpiFrequencyHz int64         `yaml:"spi_frequency_hz"`
	ResetPin       string        `yaml:"reset_pin"`
	DataCommandPin string        `yaml:"data_command_pin"`
	BacklightPin   string        `yaml:"backlight_pin"`
	PwmFrequencyHz int64         `yaml:"pwm_frequency_hz"`
	Rotate180      bool          `yaml:"rotate_180"`
	DimLevel       int           `yaml:"dim_level"`
	DimTimeout     time.Duration `yaml:"dim_timeout"`
	BackgroundDir  string        `yaml:"background_dir"`
}

type FanParam struct {
	Pin            string           `yaml:"pin"`
	PwmFrequencyHz int64            `yaml:"pwm_frequency_hz"`
	Interval       time.Duration    `yaml:"interval"`
	Hysteresis     float64          `yaml:"hysteresis"`
	MaxSpeedChange int              `yaml:"max_speed_change"`
	MinDuty        int              `yaml:"min_duty"`
	StartupDuty    int              `yaml:"startup_duty"`
	RampWhileHeld  bool             `yaml:"ramp_while_held"`
	DefaultCurve   fancontrol.Curve `yaml:"default_curve"`
	TurboCurve     fancontrol.Curve `yaml:"turbo_curve"`
}

type ButtonParam struct {
	Pin         string        `yaml:"pin"`
	ShortPress  time.Duration `yaml:"short_press"`
	LongPress   time.Duration `yaml:"long_press"`
	EdgeTimeout time.Duration `yaml:"edge_timeout"`
}

type RenderParam struct {
	Interval        time.Duration `yaml:"interval"`
	StaleAfter      time.Duration `yaml:"stale_after"`
	ClearErrorAfter int           `yaml:"clear_error_after"`
}

type MonitorParam struct {
	Interval         time.Duration `yaml:"interval"`
	DiskInterval     time.Duration `yaml:"disk_interval"`
	NetworkInterface string        `yaml:"network_interface"`
	BayDevices       []string      `yaml:"bay_devices"`
	RootPath         string        `yaml:"root_path"`
	ThermalZone      string        `yaml:"thermal_zone"`
}

type TelemetryParam struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`

	// Retention bounds the history kept in the database. 0 keeps every record.
	Retention time.Duration `yaml:"retention"`
}

// FanSettings returns the control algorithm parameters.
func (p *ServerParam) FanSettings() fancontrol.Settings {
	return fancontrol.Settings{
		Quiet:          p.Fan.DefaultCurve,
		Turbo:          p.Fan.TurboCurve,
		Hysteresis:     p.Fan.Hysteresis,
		MaxSpeedChange: p.Fan.MaxSpeedChange,
		MinDuty:        p.Fan.MinDuty,
		RampWhileHeld:  p.Fan.RampWhileHeld,
	}
}

func (p *ServerParam) Validate() error {
	if err := p.FanSettings().Validate(); err != nil {
		return fmt.Errorf("fan: %w", err)
	}
	if err := checkPercent("fan.startup_duty", p.Fan.StartupDuty); err != nil {
		return err
	}
	if err := checkPercent("display.dim_level", p.Display.DimLevel); err != nil {
		return err
	}
	for name, d := range map[string]time.Duration{
		"display.dim_timeout": p.Display.DimTimeout,
		"fan.interval":        p.Fan.Interval,
		"button.long_press":   p.Button.LongPress,
		"button.edge_timeout": p.Button.EdgeTimeout,
		"render.interval":     p.Render.Interval,
		"render.stale_after":  p.Render.StaleAfter,
		"monitor.interval":    p.Monitor.Interval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if p.Button.ShortPress < 0 || p.Button.ShortPress >= p.Button.LongPress {
		return fmt.Errorf("button.short_press %v must be lower than button.long_press %v", p.Button.ShortPress, p.Button.LongPress)
	}
	if p.Render.ClearErrorAfter <= 0 {
		return fmt.Errorf("render.clear_error_after must be positive, got %d", p.Render.ClearErrorAfter)
	}
	if p.Display.SpiFrequencyHz <= 0 || p.Display.PwmFrequencyHz <= 0 || p.Fan.PwmFrequencyHz <= 0 {
		return fmt.Errorf("spi and pwm frequencies must be positive")
	}
	if len(p.Monitor.BayDevices) > 2 {
		return fmt.Errorf("monitor.bay_devices lists %d devices, the enclosure has 2 bays", len(p.Monitor.BayDevices))
	}
	if p.Telemetry.Retention < 0 {
		return fmt.Errorf("telemetry.retention must not be negative, got %v", p.Telemetry.Retention)
	}
	if p.Telemetry.Enabled && p.Telemetry.DBPath == "" {
		return fmt.Errorf("telemetry.db_path is required when telemetry is enabled")
	}
	return nil
}

func checkPercent(name string, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%s %d out of [0,100]", name, value)
	}
	return nil
}
