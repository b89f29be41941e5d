package config

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，补全各配置项的默认值
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化全局变量
// 功能：创建运行时配置对象，补全未指定项的默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control

	if rc.C.Spawn.GlobalRate <= 0 {
		rc.C.Spawn.GlobalRate = 1
	}
	if rc.C.Spawn.DespawnRadius <= 0 {
		rc.C.Spawn.DespawnRadius = 15
	}
	if rc.C.Spawn.DefaultRate <= 0 {
		rc.C.Spawn.DefaultRate = 2
	}
	if rc.C.Spawn.AutoSpawnPoints <= 0 {
		rc.C.Spawn.AutoSpawnPoints = 8
	}
	if rc.C.Collision.CellSize <= 0 {
		rc.C.Collision.CellSize = 50
	}
	if rc.C.Collision.SafetyBubble <= 0 {
		rc.C.Collision.SafetyBubble = 4
	}
	if rc.C.Behavior.StopSignMinWait <= 0 {
		rc.C.Behavior.StopSignMinWait = 2
	}
	if rc.C.Behavior.DetectionRadius <= 0 {
		rc.C.Behavior.DetectionRadius = 50
	}
	if rc.C.Signal.GreenDuration <= 0 {
		rc.C.Signal.GreenDuration = 20
	}
	if rc.C.Signal.YellowDuration <= 0 {
		rc.C.Signal.YellowDuration = 3
	}
	if rc.C.Signal.RedDuration <= 0 {
		rc.C.Signal.RedDuration = 17
	}

	return rc
}
