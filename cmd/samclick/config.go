package main

import (
	"fmt"

	"github.com/getcharzp/go-segment"
	"github.com/getcharzp/go-segment/sam"
	"github.com/spf13/viper"
)

// Config samclick 的配置
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Model  ModelConfig  `mapstructure:"model"`
	Output OutputConfig `mapstructure:"output"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type ModelConfig struct {
	OnnxRuntimeLibPath string `mapstructure:"onnxruntime_lib"`
	DecodeModelPath    string `mapstructure:"decoder"`
	UseCuda            bool   `mapstructure:"use_cuda"`
	NumThreads         int    `mapstructure:"num_threads"`
	EnableCpuMemArena  bool   `mapstructure:"cpu_mem_arena"`
}

type OutputConfig struct {
	Overlay      string `mapstructure:"overlay"`
	Composite    string `mapstructure:"composite"`
	MarkerRadius int    `mapstructure:"marker_radius"`
	Quality      int    `mapstructure:"quality"`
}

// LoadConfig 读取 YAML 配置, path 为空时只使用默认值
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := sam.DefaultConfig()
	v.SetDefault("log.mode", "debug")
	v.SetDefault("model.onnxruntime_lib", segment.DefaultLibraryPath())
	v.SetDefault("model.decoder", def.DecodeModelPath)
	v.SetDefault("model.use_cuda", false)
	v.SetDefault("model.num_threads", 0)
	v.SetDefault("model.cpu_mem_arena", def.EnableCpuMemArena)
	v.SetDefault("output.overlay", "mask_overlay.png")
	v.SetDefault("output.composite", "")
	v.SetDefault("output.marker_radius", 6)
	v.SetDefault("output.quality", 100)
}

// EngineConfig 转为引擎配置
func (c *Config) EngineConfig() sam.Config {
	cfg := sam.DefaultConfig()
	cfg.OnnxRuntimeLibPath = c.Model.OnnxRuntimeLibPath
	cfg.DecodeModelPath = c.Model.DecodeModelPath
	cfg.UseCuda = c.Model.UseCuda
	cfg.NumThreads = c.Model.NumThreads
	cfg.EnableCpuMemArena = c.Model.EnableCpuMemArena
	return cfg
}
