package entity

import (
	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/utils/config"
	"github.com/Lemirq/qhacks-sub000/utils/input"
)

// entity/roadnet/node.go的依赖倒置
type IRoadNode interface {
	ID() int64                 // 获取节点ID
	Position() orb.Point       // 获取节点位置
	Kind() NodeKind            // 获取节点分类
	ConnectedEdgeIDs() []int64 // 获取关联的边ID列表
	OutgoingEdges() []IRoadEdge

	String() string
}

// entity/roadnet/edge.go的依赖倒置
type IRoadEdge interface {
	ID() int64                // 获取边ID
	FromID() int64            // 获取起点节点ID
	ToID() int64              // 获取终点节点ID
	Geometry() orb.LineString // 获取边的折线几何（>=2个点）
	Length() float64          // 获取边长度（米）
	MaxSpeed() float64        // 获取限速（千米/时）
	Lanes() int32             // 获取车道数
	OneWay() bool             // 是否单向
	Name() string             // 获取道路名（可为空）

	PositionAt(s float64) orb.Point          // 里程s处的坐标（线性插值）
	BearingAt(s float64) float64             // 里程s处的前进方位角（向前看10米）
	DistanceToPoint(p orb.Point) float64     // 点到边几何的最小距离
	ProjectPoint(p orb.Point) (s float64)    // 点在边上的投影里程
}

// entity/roadnet/destination.go的依赖倒置
type IDestination interface {
	ID() int64                     // 获取目的地ID
	Name() string                  // 获取名称
	Position() orb.Point           // 获取位置
	Category() DestinationCategory // 获取分类
	Capacity() int32               // 获取容量（0表示不限）
	Weight() float64               // 获取抽样权重（严格为正）
}

// 路网管理器接口
type IRoadNetManager interface {
	Init(segments []input.Segment, destinations []input.Destination)

	GetNode(id int64) IRoadNode                // 按ID获取节点，不存在则panic
	GetNodeOrError(id int64) (IRoadNode, error)
	GetEdge(id int64) IRoadEdge // 按ID获取边，不存在则panic
	GetEdgeOrError(id int64) (IRoadEdge, error)
	NodeCount() int
	EdgeCount() int
	Edges() []IRoadEdge
	Destinations() []IDestination

	// 查询操作。空路网时FindNearestNode返回nil，所有依赖方按"无法路由"处理
	FindNearestNode(pos orb.Point) IRoadNode
	FindEdgesNearPosition(pos orb.Point, radius float64) []IRoadEdge
	RandomDestination() IDestination
	RandomEdge() IRoadEdge
}

// 导航模块接口
type IRouter interface {
	// 路径规划，blocked中的边ID在松弛时被跳过；无可行路径返回nil
	FindRoute(start, end orb.Point, blocked map[int64]bool) *Route
}

// entity/vehicle/vehicle.go的依赖倒置（碰撞查询所需的快照只读视图）
type IVehicle interface {
	ID() int32           // 获取车辆ID
	Class() VehicleClass // 获取车辆类型
	Position() orb.Point // 获取快照位置
	Bearing() float64    // 获取快照朝向（度）
	V() float64          // 获取快照速度（米/秒）
	CurrentEdgeID() int64
	NextEdgeID() int64          // 路线中的下一条边ID，没有则为0
	State() BehaviorState       // 获取快照行为状态
	StoppedAtControl() bool     // 是否停在交通控制前
}

// 碰撞系统接口
// 说明：基于UpdateGrid时刻的快照提供纯查询服务，从不修改车辆
type ICollisionManager interface {
	UpdateGrid(vehicles []IVehicle)
	GetNearbyVehicles(v IVehicle, radius float64) []IVehicle
	CheckImmediateCollision(v IVehicle) (IVehicle, bool)
	CheckPredictiveCollision(v IVehicle) (ttc float64, ok bool)
	RequiresEmergencyBrake(v IVehicle) bool
	SafeFollowingDistance(vMS float64) float64
	Stats() CollisionStats
}

// CollisionStats 碰撞系统统计信息（外部面板用）
type CollisionStats struct {
	TrackedVehicles int // 网格中车辆总数
	OccupiedCells   int // 非空网格单元数
}

// 信号灯/停车标志管理器接口
// 说明：模拟核心把交通控制状态当作每步刷新的只读查询
type ISignalManager interface {
	Init(signals []SignalState, stopSigns []StopSign)
	Prepare()
	Update(dt float64)
	PhaseAt(signalID int64) (LightState, bool)
	SignalsNear(pos orb.Point, radius float64) []SignalState
	StopSignsNear(pos orb.Point, radius float64) []StopSign
}

// SpawnerStats 车辆生命周期统计信息（外部面板用）
type SpawnerStats struct {
	ActiveCars        int32 // 场上车辆数
	TotalSpawned      int64 // 累计生成数
	TotalDespawned    int64 // 累计消亡数
	ActiveSpawnPoints int   // 活跃生成点数
}

// 车辆管理器（生命周期+行为）接口
type IVehicleManager interface {
	Init(points []input.SpawnPoint)
	PrepareNode()
	Prepare()
	UpdateSpawn(dt float64)
	ActiveVehicles() []IVehicle
	UpdateBehavior(dt float64)
	UpdatePositions(dt float64)

	// 外部写入面（放置建筑联动）
	SetBlockedEdges(edgeIDs []int64)
	BlockedEdges() map[int64]bool
	BurstSpawnNearBuildings(points []orb.Point, count int)
	SetBuildingVicinitySpawning(points []orb.Point, enabled bool)
	ClearBuildingVicinitySpawning()

	// 对外读取面
	Snapshots() []VehicleSnapshot
	Stats() SpawnerStats
}

type ITaskContext interface {
	Clock() *clock.Clock
	RoadNetManager() IRoadNetManager
	Router() IRouter
	CollisionManager() ICollisionManager
	SignalManager() ISignalManager
	VehicleManager() IVehicleManager
	RuntimeConfig() *config.RuntimeConfig
}
