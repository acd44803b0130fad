package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const envPrefix = "NASHAT"

// applyEnvOverrides lets NASHAT_<SECTION>_<KEY> environment variables override
// values read from the param file, e.g. NASHAT_FAN_HYSTERESIS=4.
func applyEnvOverrides(p *ServerParam) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overrideString(v, "display.spi_port", &p.Display.SpiPort)
	overrideInt64(v, "display.spi_frequency_hz", &p.Display.SpiFrequencyHz)
	overrideString(v, "display.reset_pin", &p.Display.ResetPin)
	overrideString(v, "display.data_command_pin", &p.Display.DataCommandPin)
	overrideString(v, "display.backlight_pin", &p.Display.BacklightPin)
	overrideInt64(v, "display.pwm_frequency_hz", &p.Display.PwmFrequencyHz)
	overrideBool(v, "display.rotate_180", &p.Display.Rotate180)
	overrideInt(v, "display.dim_level", &p.Display.DimLevel)
	overrideDuration(v, "display.dim_timeout", &p.Display.DimTimeout)
	overrideString(v, "display.background_dir", &p.Display.BackgroundDir)

	overrideString(v, "fan.pin", &p.Fan.Pin)
	overrideInt64(v, "fan.pwm_frequency_hz", &p.Fan.PwmFrequencyHz)
	overrideDuration(v, "fan.interval", &p.Fan.Interval)
	if v.IsSet("fan.hysteresis") {
		p.Fan.Hysteresis = v.GetFloat64("fan.hysteresis")
		logrus.Debugf("Param fan.hysteresis overridden by environment")
	}
	overrideInt(v, "fan.max_speed_change", &p.Fan.MaxSpeedChange)
	overrideInt(v, "fan.min_duty", &p.Fan.MinDuty)
	overrideInt(v, "fan.startup_duty", &p.Fan.StartupDuty)
	overrideBool(v, "fan.ramp_while_held", &p.Fan.RampWhileHeld)

	overrideString(v, "button.pin", &p.Button.Pin)
	overrideDuration(v, "button.short_press", &p.Button.ShortPress)
	overrideDuration(v, "button.long_press", &p.Button.LongPress)
	overrideDuration(v, "button.edge_timeout", &p.Button.EdgeTimeout)

	overrideDuration(v, "render.interval", &p.Render.Interval)
	overrideDuration(v, "render.stale_after", &p.Render.StaleAfter)
	overrideInt(v, "render.clear_error_after", &p.Render.ClearErrorAfter)

	overrideDuration(v, "monitor.interval", &p.Monitor.Interval)
	overrideDuration(v, "monitor.disk_interval", &p.Monitor.DiskInterval)
	overrideString(v, "monitor.network_interface", &p.Monitor.NetworkInterface)
	if v.IsSet("monitor.bay_devices") {
		p.Monitor.BayDevices = strings.Fields(strings.ReplaceAll(v.GetString("monitor.bay_devices"), ",", " "))
		logrus.Debugf("Param monitor.bay_devices overridden by environment")
	}
	overrideString(v, "monitor.root_path", &p.Monitor.RootPath)
	overrideString(v, "monitor.thermal_zone", &p.Monitor.ThermalZone)

	overrideBool(v, "telemetry.enabled", &p.Telemetry.Enabled)
	overrideString(v, "telemetry.db_path", &p.Telemetry.DBPath)
	overrideDuration(v, "telemetry.retention", &p.Telemetry.Retention)
}

func overrideString(v *viper.Viper, key string, target *string) {
	if v.IsSet(key) {
		*target = v.GetString(key)
		logrus.Debugf("Param %s overridden by environment", key)
	}
}

func overrideInt(v *viper.Viper, key string, target *int) {
	if v.IsSet(key) {
		*target = v.GetInt(key)
		logrus.Debugf("Param %s overridden by environment", key)
	}
}

func overrideInt64(v *viper.Viper, key string, target *int64) {
	if v.IsSet(key) {
		*target = v.GetInt64(key)
		logrus.Debugf("Param %s overridden by environment", key)
	}
}

func overrideBool(v *viper.Viper, key string, target *bool) {
	if v.IsSet(key) {
		*target = v.GetBool(key)
		logrus.Debugf("Param %s overridden by environment", key)
	}
}

func overrideDuration(v *viper.Viper, key string, target *time.Duration) {
	if v.IsSet(key) {
		*target = v.GetDuration(key)
		logrus.Debugf("Param %s overridden by environment", key)
	}
}
