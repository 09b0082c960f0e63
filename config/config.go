// Package config 提供 go-rawlink 的统一配置
//
// 主 Config 聚合各组件子配置，每个子配置在独立文件中定义，
// 提供 DefaultXxxConfig()、Validate() 与 WithXxx 构造方法。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Rendezvous = cfg.Rendezvous.WithSendCount(20)
//
//	// 应用预设
//	config.ApplyPreset(cfg, "fast")
//
//	// 从 JSON 加载
//	cfg, err := config.LoadFile("rawlink.json")
package config

// Config go-rawlink 完整配置
//
//   - Link: 链路实现与信道
//   - Rendezvous: 汇合引擎
//   - ConnTable: 连接表
//   - Metrics: 指标
//   - Log: 日志
type Config struct {
	// Link 链路配置
	Link LinkConfig `json:"link"`

	// Rendezvous 汇合引擎配置
	Rendezvous RendezvousConfig `json:"rendezvous"`

	// ConnTable 连接表配置
	ConnTable ConnTableConfig `json:"conn_table"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Link:       DefaultLinkConfig(),
		Rendezvous: DefaultRendezvousConfig(),
		ConnTable:  DefaultConnTableConfig(),
		Metrics:    DefaultMetricsConfig(),
		Log:        DefaultLogConfig(),
	}
}

// Validate 验证所有子配置
func (c *Config) Validate() error {
	if err := c.Link.Validate(); err != nil {
		return err
	}
	if err := c.Rendezvous.Validate(); err != nil {
		return err
	}
	if err := c.ConnTable.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
