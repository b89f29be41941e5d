package vehicle

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/container"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

// 终点边上提前判定抵达的余量（米）
const routeEndSlack = 0.5

// 车辆状态数据
// 说明：快照与运行时各持有一份，Prepare时用运行时覆盖快照
type data struct {
	Position         orb.Point            // 位置
	Bearing          float64              // 朝向（度）
	V                float64              // 速度（米/秒）
	EdgeID           int64                // 当前边ID
	S                float64              // 当前边上的里程（米）
	State            entity.BehaviorState // 行为状态
	StoppedAtControl bool                 // 是否停在交通控制前
}

// Car 车辆
// 功能：模拟中的单个车辆，持有物理参数、路线与行为控制器
// 说明：行为评估阶段只读快照，位置推进阶段只写运行时，
// 两份数据在Prepare阶段同步
type Car struct {
	container.IncrementalItemBase
	ctx entity.ITaskContext

	id      int32
	class   entity.VehicleClass
	profile entity.PhysicsProfile
	maxV    float64 // 个体最高速度（米/秒，生成时抖动后）

	destination entity.IDestination
	route       *entity.Route
	controller  *controller

	snapshot data // 快照数据
	runtime  data // 运行时数据

	despawned bool
}

// newCar 创建车辆
// 说明：初始位置取路线第一个航点，初始朝向沿路线第一段
func newCar(ctx entity.ITaskContext, id int32, class entity.VehicleClass,
	destination entity.IDestination, route *entity.Route, maxV float64) *Car {
	c := &Car{
		ctx:         ctx,
		id:          id,
		class:       class,
		profile:     class.Profile(),
		maxV:        maxV,
		destination: destination,
		route:       route,
	}
	c.runtime = data{
		Position: route.Waypoints[0],
		State:    entity.BehaviorCruising,
	}
	if len(route.Edges) > 0 {
		c.runtime.EdgeID = route.Edges[0].ID()
	}
	if len(route.Waypoints) >= 2 {
		c.runtime.Bearing = geomath.Bearing(route.Waypoints[0], route.Waypoints[1])
	}
	c.snapshot = c.runtime
	c.controller = newController(c)
	return c
}

// placeOn 把车辆放置到路线首边的指定里程处
// 说明：批量生成沿边撒点时使用，要求edge为路线的第一条边
func (c *Car) placeOn(edge entity.IRoadEdge, s float64) {
	c.runtime.EdgeID = edge.ID()
	c.runtime.S = s
	c.runtime.Position = edge.PositionAt(s)
	c.runtime.Bearing = edge.BearingAt(s)
	c.snapshot = c.runtime
}

// prepare 更新快照
func (c *Car) prepare() {
	c.snapshot = c.runtime
}

// ID 获取车辆ID
func (c *Car) ID() int32 {
	return c.id
}

// Class 获取车辆类型
func (c *Car) Class() entity.VehicleClass {
	return c.class
}

// Position 获取快照位置
func (c *Car) Position() orb.Point {
	return c.snapshot.Position
}

// Bearing 获取快照朝向（度）
func (c *Car) Bearing() float64 {
	return c.snapshot.Bearing
}

// V 获取快照速度（米/秒）
func (c *Car) V() float64 {
	return c.snapshot.V
}

// CurrentEdgeID 获取快照中的当前边ID
func (c *Car) CurrentEdgeID() int64 {
	return c.snapshot.EdgeID
}

// NextEdgeID 获取路线中的下一条边ID，没有则为0
func (c *Car) NextEdgeID() int64 {
	if next := c.route.NextEdge(c.snapshot.EdgeID); next != nil {
		return next.ID()
	}
	return 0
}

// State 获取快照行为状态
func (c *Car) State() entity.BehaviorState {
	return c.snapshot.State
}

// StoppedAtControl 是否停在交通控制前
func (c *Car) StoppedAtControl() bool {
	return c.snapshot.StoppedAtControl
}

// applyBehavior 应用行为决策
// 功能：将行为控制器的决策转化为速度变化
// 算法说明：
// 1. 将加速度积分进速度
// 2. 以|A|*dt（A为零时退化为默认松弛速率）为界向目标车速收敛
// 3. 将速度夹在[0, maxV]内，并记录新的行为状态
func (c *Car) applyBehavior(ac action, dt float64) {
	v := c.runtime.V + ac.A*dt
	rate := ac.A
	if rate < 0 {
		rate = -rate
	}
	if rate == 0 {
		rate = defaultEaseRate
	}
	maxDelta := rate * dt
	if diff := ac.TargetV - v; diff > maxDelta {
		v += maxDelta
	} else if diff < -maxDelta {
		v -= maxDelta
	} else {
		v = ac.TargetV
	}
	if v < 0 {
		v = 0
	} else if v > c.maxV {
		v = c.maxV
	}
	c.runtime.V = v
	c.runtime.State = ac.State
	c.runtime.StoppedAtControl = ac.StoppedAtControl
}

// rerouteIfBlocked 路线被封闭时重新规划
// 功能：当前边或下一条边被封闭时，从当前位置重新路由到目的地
// 说明：重算路线仍从当前边出发时保留边上里程，只有换边才清零；
// 重算失败时保持原路线，等待封闭解除
func (c *Car) rerouteIfBlocked(blocked map[int64]bool) {
	if len(blocked) == 0 {
		return
	}
	if !blocked[c.runtime.EdgeID] {
		next := c.route.NextEdge(c.runtime.EdgeID)
		if next == nil || !blocked[next.ID()] {
			return
		}
	}
	r := c.ctx.Router().FindRoute(c.runtime.Position, c.destination.Position(), blocked)
	if r == nil || r.Direct() {
		return
	}
	if r.Edges[0].ID() != c.runtime.EdgeID {
		c.runtime.EdgeID = r.Edges[0].ID()
		c.runtime.S = 0
	}
	c.route = r
}

// updatePosition 推进车辆位置
// 功能：按当前速度沿路线几何推进，跨边时消费路线中的下一条边
// 参数：dt-时间步长（秒），despawnRadius-抵达判定半径（米）
// 返回：是否满足消亡条件（抵达目的地或路线走完）
func (c *Car) updatePosition(dt, despawnRadius float64) bool {
	c.runtime.S += c.runtime.V * dt
	edge, err := c.ctx.RoadNetManager().GetEdgeOrError(c.runtime.EdgeID)
	if err != nil {
		// 路网变更导致当前边失效
		return true
	}
	for c.runtime.S >= edge.Length() {
		next := c.route.NextEdge(edge.ID())
		if next == nil {
			c.runtime.Position = edge.PositionAt(edge.Length())
			return true
		}
		c.runtime.S -= edge.Length()
		edge = next
		c.runtime.EdgeID = edge.ID()
	}
	c.runtime.Position = edge.PositionAt(c.runtime.S)
	c.runtime.Bearing = edge.BearingAt(c.runtime.S)
	if c.route.NextEdge(edge.ID()) == nil && c.runtime.S >= edge.Length()-routeEndSlack {
		return true
	}
	return geomath.Distance(c.runtime.Position, c.destination.Position()) <= despawnRadius
}

// snapshotView 生成对外快照
func (c *Car) snapshotView() entity.VehicleSnapshot {
	return entity.VehicleSnapshot{
		ID:        c.id,
		Class:     c.class,
		Position:  c.snapshot.Position,
		Bearing:   c.snapshot.Bearing,
		Speed:     c.snapshot.V * 3.6,
		State:     c.snapshot.State,
		Waypoints: c.route.Waypoints,
	}
}

func (c *Car) String() string {
	return fmt.Sprintf("Car %d (%s) at %v state=%s", c.id, c.class, c.snapshot.Position, c.snapshot.State)
}
