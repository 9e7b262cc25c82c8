package sir

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultSamples is the number of concrete samples behind an abstract state.
	DefaultSamples = 10000
	defaultBeta    = 0.5
	defaultGamma   = 0.1
	defaultDt      = 1.0
	defaultSubstep = 100
)

var (
	cfgLoaded = false
	config    = Config{}
)

// Config stores the settings of an abstraction run.
type Config struct {
	Name      string
	NSamples  int
	Params    TransitionParams
	Substeps  int        // RK4 steps per abstraction step for the mean-field reference
	Initial   [3]float64 // initial (rhoS, rhoI, rhoR)
	Seed      uint64
	Steps     int
	OutputDir string
	Export    ExportConfig
}

func (c Config) String() string {
	return fmt.Sprintf("%s: N=%d %s init=%v steps=%d seed=%d", c.Name, c.NSamples, c.Params, c.Initial, c.Steps, c.Seed)
}

// DefaultConfig returns the configuration used when no scenario file is provided.
func DefaultConfig() Config {
	return Config{
		Name:      "sir",
		NSamples:  DefaultSamples,
		Params:    TransitionParams{Beta: defaultBeta, Gamma: defaultGamma, Dt: defaultDt},
		Substeps:  defaultSubstep,
		Initial:   [3]float64{90, 10, 0},
		Seed:      1,
		Steps:     10,
		OutputDir: ".",
	}
}

// LoadConfig reads the TOML scenario `name` (with or without extension) from dir.
// Keys which are absent keep the value of DefaultConfig.
func LoadConfig(dir, name string) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigName(strings.TrimSuffix(name, ".toml"))
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/%s.toml: %w", dir, strings.TrimSuffix(name, ".toml"), err)
	}
	return configFromViper(v)
}

func configFromViper(v *viper.Viper) (Config, error) {
	conf := DefaultConfig()
	v.SetDefault("general.name", conf.Name)
	v.SetDefault("general.seed", conf.Seed)
	v.SetDefault("general.steps", conf.Steps)
	v.SetDefault("general.output_path", conf.OutputDir)
	v.SetDefault("model.samples", conf.NSamples)
	v.SetDefault("model.beta", conf.Params.Beta)
	v.SetDefault("model.gamma", conf.Params.Gamma)
	v.SetDefault("model.dt", conf.Params.Dt)
	v.SetDefault("model.substeps", conf.Substeps)
	v.SetDefault("state.S", conf.Initial[0])
	v.SetDefault("state.I", conf.Initial[1])
	v.SetDefault("state.R", conf.Initial[2])

	conf.Name = v.GetString("general.name")
	conf.Seed = v.GetUint64("general.seed")
	conf.Steps = v.GetInt("general.steps")
	conf.OutputDir = v.GetString("general.output_path")
	conf.NSamples = v.GetInt("model.samples")
	conf.Params = TransitionParams{
		Beta:  v.GetFloat64("model.beta"),
		Gamma: v.GetFloat64("model.gamma"),
		Dt:    v.GetFloat64("model.dt"),
	}
	conf.Substeps = v.GetInt("model.substeps")
	conf.Initial = [3]float64{v.GetFloat64("state.S"), v.GetFloat64("state.I"), v.GetFloat64("state.R")}
	conf.Export = ExportConfig{
		Filename: v.GetString("export.filename"),
		AsCSV:    v.GetBool("export.csv"),
		Plot:     v.GetBool("export.plot"),
		Dir:      conf.OutputDir,
	}
	if conf.Export.Filename == "" {
		conf.Export.Filename = conf.Name
	}

	if conf.NSamples <= 0 {
		return Config{}, fmt.Errorf("model.samples must be positive, got %d", conf.NSamples)
	}
	if conf.Substeps <= 0 {
		return Config{}, fmt.Errorf("model.substeps must be positive, got %d", conf.Substeps)
	}
	if conf.Params.Dt <= 0 {
		return Config{}, fmt.Errorf("model.dt must be positive, got %f", conf.Params.Dt)
	}
	return conf, nil
}

// sirConfig returns the configuration pointed to by `SIR_CONFIG`, or the defaults if unset.
func sirConfig() Config {
	if cfgLoaded {
		return config
	}
	confPath := os.Getenv("SIR_CONFIG")
	if confPath == "" {
		config = DefaultConfig()
		cfgLoaded = true
		return config
	}
	conf, err := LoadConfig(confPath, "conf")
	if err != nil {
		panic(err)
	}
	config = conf
	cfgLoaded = true
	return config
}
