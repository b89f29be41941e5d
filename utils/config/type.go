package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：文件路径的优先级高于MongoDB
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义路网、目的地、生成点等输入数据的配置
// 说明：路网支持OSM文件（.osm/.pbf）或MongoDB路段集合，
// 目的地与生成点支持GeoJSON覆盖文件或MongoDB集合
type Input struct {
	URI          string     `yaml:"uri,omitempty"`          // MongoDB连接字符串
	Map          InputPath  `yaml:"map"`                    // 路网
	Destinations *InputPath `yaml:"destinations,omitempty"` // 目的地
	SpawnPoints  *InputPath `yaml:"spawn_points,omitempty"` // 生成点
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Spawn 车辆生命周期配置
// 功能：定义生成、消亡相关的全局参数
type Spawn struct {
	MaxCars         int32   `yaml:"max_cars"`                    // 场上车辆上限
	GlobalRate      float64 `yaml:"global_rate,omitempty"`       // 全局生成速率倍数（默认1）
	DespawnRadius   float64 `yaml:"despawn_radius,omitempty"`    // 抵达判定半径（米，默认15）
	DefaultRate     float64 `yaml:"default_rate,omitempty"`      // 生成点默认速率（辆/分钟，默认2）
	AutoSpawnPoints int32   `yaml:"auto_spawn_points,omitempty"` // 未配置生成点时自动选取的路网节点数（默认8）
}

// Collision 碰撞系统配置
type Collision struct {
	CellSize     float64 `yaml:"cell_size,omitempty"`     // 空间网格单元尺寸（米，默认50）
	SafetyBubble float64 `yaml:"safety_bubble,omitempty"` // 安全气泡半径（米，默认4）
}

// Behavior 车辆行为配置
type Behavior struct {
	DisableCollisionResponse bool    `yaml:"disable_collision_response,omitempty"` // 关闭紧急避撞
	StopSignMinWait          float64 `yaml:"stop_sign_min_wait,omitempty"`         // 停车标志最短等待（秒，默认2）
	DetectionRadius          float64 `yaml:"detection_radius,omitempty"`           // 交通控制检测半径（米，默认50）
}

// Signal 信号灯配置
// 功能：定义固定相位信号灯的各相位时长
type Signal struct {
	GreenDuration  float64 `yaml:"green_duration,omitempty"`  // 绿灯时长（秒，默认20）
	YellowDuration float64 `yaml:"yellow_duration,omitempty"` // 黄灯时长（秒，默认3）
	RedDuration    float64 `yaml:"red_duration,omitempty"`    // 红灯时长（秒，默认17）
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step      ControlStep `yaml:"step"`
	Seed      uint64      `yaml:"seed,omitempty"`      // 随机种子
	Spawn     Spawn       `yaml:"spawn"`               // 车辆生命周期
	Collision Collision   `yaml:"collision,omitempty"` // 碰撞系统
	Behavior  Behavior    `yaml:"behavior,omitempty"`  // 车辆行为
	Signal    Signal      `yaml:"signal,omitempty"`    // 信号灯
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 模拟过程控制
}
