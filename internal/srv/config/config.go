package config

import (
	"errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

const paramFilename = "param.yaml"
const stateFilename = "state.yaml"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
	*ServerState
}

// NewServerConfig loads param.yaml from configDir, writing the default one when
// missing, applies environment overrides and restores the persisted state.
func NewServerConfig(configDir string, debugMode bool, simulationMode bool) (*ServerConfig, error) {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, &ConfigurationError{Resource: configDir, Err: err}
		}
		logrus.Printf("Creation of config folder: %s", configDir)
		if err = os.MkdirAll(configDir, 0770); err != nil {
			return nil, &ConfigurationError{Resource: configDir, Err: err}
		}
	}

	if err = serverConfig.loadParam(true); err != nil {
		return nil, err
	}

	// Open state file
	serverConfig.ServerState, err = NewServerState(serverConfig.GetCompleteStateFilename())
	if err != nil {
		return nil, &ConfigurationError{Resource: serverConfig.GetCompleteStateFilename(), Err: err}
	}

	return serverConfig, nil
}

// LoadServerConfig is the read-only counterpart of NewServerConfig used by the
// service commands: nothing is created or written in configDir, a missing
// param.yaml yields the defaults and the state is not persisted.
func LoadServerConfig(configDir string) (*ServerConfig, error) {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		SimulationMode: true,
	}
	if err := serverConfig.loadParam(false); err != nil {
		return nil, err
	}
	serverConfig.ServerState, _ = NewServerState("")
	return serverConfig, nil
}

// loadParam reads param.yaml, writing the default one when missing and
// saveDefault is set, then applies overrides, validation and path resolution.
func (sc *ServerConfig) loadParam(saveDefault bool) error {
	rawConfig, err := os.ReadFile(sc.GetCompleteParamFilename())
	switch {
	case err == nil:
		sc.ServerParam, err = ParseParam(rawConfig)
		if err != nil {
			return &ConfigurationError{Resource: sc.GetCompleteParamFilename(), Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
		sc.ServerParam, err = ParseParam(ParamDefaultFile)
		if err != nil {
			return &ConfigurationError{Resource: "default param", Err: err}
		}
		if saveDefault {
			logrus.Infof("Create default param file")
			if err = sc.SaveParam(); err != nil {
				return &ConfigurationError{Resource: sc.GetCompleteParamFilename(), Err: err}
			}
		}
	default:
		return &ConfigurationError{Resource: sc.GetCompleteParamFilename(), Err: err}
	}

	applyEnvOverrides(sc.ServerParam)

	if err = sc.ServerParam.Validate(); err != nil {
		return &ConfigurationError{Resource: sc.GetCompleteParamFilename(), Err: err}
	}

	// Relative paths are inside the config folder
	if db := sc.Telemetry.DBPath; db != "" && !filepath.IsAbs(db) {
		sc.Telemetry.DBPath = filepath.Join(sc.ConfigDir, db)
	}
	if dir := sc.Display.BackgroundDir; dir != "" && !filepath.IsAbs(dir) {
		sc.Display.BackgroundDir = filepath.Join(sc.ConfigDir, dir)
	}
	return nil
}

// ParseParam decodes a param file on top of the default one, so keys absent
// from raw keep their default value. Lists such as curves are replaced whole.
func ParseParam(raw []byte) (*ServerParam, error) {
	serverParam := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, serverParam); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, serverParam); err != nil {
		return nil, err
	}
	return serverParam, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteStateFilename() string {
	return filepath.Join(sc.ConfigDir, stateFilename)
}

func (sc *ServerConfig) SaveParam() error {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(sc.ServerParam)
	if err != nil {
		return err
	}
	return os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
}
