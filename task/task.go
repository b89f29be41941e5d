package task

import (
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/entity/collision"
	"github.com/Lemirq/qhacks-sub000/entity/roadnet"
	"github.com/Lemirq/qhacks-sub000/entity/roadnet/route"
	"github.com/Lemirq/qhacks-sub000/entity/signal"
	"github.com/Lemirq/qhacks-sub000/entity/vehicle"
	"github.com/Lemirq/qhacks-sub000/utils/config"
	"github.com/Lemirq/qhacks-sub000/utils/input"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：管理仿真系统的所有组件，包括时钟、各管理器与运行时配置
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 路网管理器
	roadNetManager entity.IRoadNetManager
	// 导航服务
	router entity.IRouter
	// 碰撞管理器
	collisionManager entity.ICollisionManager
	// 信号灯管理器
	signalManager entity.ISignalManager
	// 车辆管理器
	vehicleManager entity.IVehicleManager

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建新的仿真任务上下文
// 功能：加载输入数据并创建仿真系统的所有组件
// 参数：job-任务名称，c-配置对象
// 返回：初始化完成的Context实例
// 说明：各管理器在此处只创建不初始化，Init中按依赖顺序完成构建
func NewContext(job string, c config.Config) *Context {
	ctx := &Context{
		job: job,
	}
	ctx.clock = clock.New(c.Control.Step)

	// 下载所有模拟器启动所需的数据
	ctx.initRes = input.Init(c)

	ctx.runtimeConfig = config.NewRuntimeConfig(c)

	// 新建各类模拟对象
	ctx.roadNetManager = roadnet.NewManager(ctx)
	ctx.collisionManager = collision.NewManager(ctx)
	ctx.signalManager = signal.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)

	return ctx
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RoadNetManager() entity.IRoadNetManager {
	return ctx.roadNetManager
}

func (ctx *Context) Router() entity.IRouter {
	return ctx.router
}

func (ctx *Context) CollisionManager() entity.ICollisionManager {
	return ctx.collisionManager
}

func (ctx *Context) SignalManager() entity.ISignalManager {
	return ctx.signalManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Init 初始化仿真系统
// 功能：按依赖顺序完成各管理器的构建
// 算法说明：
// 1. 路网先建图，导航服务随后挂到路网上
// 2. 交通控制点转换为信号灯与停车标志并初始化
// 3. 最后初始化车辆生成点
func (ctx *Context) Init() {
	ctx.clock.Init()

	initRes := ctx.initRes

	log.Infof("Segment: %v", len(initRes.Segments))
	log.Infof("Destination: %v", len(initRes.Destinations))
	log.Infof("SpawnPoint: %v", len(initRes.SpawnPoints))
	log.Infof("Signal: %v", len(initRes.Signals))
	log.Infof("StopSign: %v", len(initRes.StopSigns))

	ctx.roadNetManager.Init(initRes.Segments, initRes.Destinations)
	// router
	ctx.router = route.New(ctx.roadNetManager)

	signals := lo.Map(initRes.Signals, func(n input.ControlNode, _ int) entity.SignalState {
		return entity.SignalState{ID: n.ID, Position: n.Position}
	})
	stopSigns := lo.Map(initRes.StopSigns, func(n input.ControlNode, _ int) entity.StopSign {
		return entity.StopSign{ID: n.ID, Position: n.Position}
	})
	ctx.signalManager.Init(signals, stopSigns)

	ctx.vehicleManager.Init(initRes.SpawnPoints)
}

// Close 请求结束仿真
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}

// 外部写入面，在两个模拟步之间调用

// SetBlockedEdges 设置封闭边集合
func (ctx *Context) SetBlockedEdges(edgeIDs []int64) {
	ctx.vehicleManager.SetBlockedEdges(edgeIDs)
}

// BurstSpawnNearBuildings 在指定点周边批量生成车辆
func (ctx *Context) BurstSpawnNearBuildings(points []orb.Point, count int) {
	ctx.vehicleManager.BurstSpawnNearBuildings(points, count)
}

// SetBuildingVicinitySpawning 开关建筑临近生成
func (ctx *Context) SetBuildingVicinitySpawning(points []orb.Point, enabled bool) {
	ctx.vehicleManager.SetBuildingVicinitySpawning(points, enabled)
}

// 对外读取面

// VehicleSnapshots 获取所有车辆的对外快照
func (ctx *Context) VehicleSnapshots() []entity.VehicleSnapshot {
	return ctx.vehicleManager.Snapshots()
}

// SpawnerStats 获取车辆生命周期统计
func (ctx *Context) SpawnerStats() entity.SpawnerStats {
	return ctx.vehicleManager.Stats()
}

// CollisionStats 获取碰撞系统统计
func (ctx *Context) CollisionStats() entity.CollisionStats {
	return ctx.collisionManager.Stats()
}
