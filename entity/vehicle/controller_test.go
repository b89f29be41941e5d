package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/config"
)

// carOnRoad 在直路上放置一辆车并提交
func carOnRoad(ctx *testContext, m *Manager, s, vKmh float64) *Car {
	dest := ctx.roadNet.Destinations()[0]
	r := ctx.router.FindRoute(pt(0, 0), dest.Position(), nil)
	car := m.addCar(dest, r)
	m.PrepareNode()
	car.placeOn(r.Edges[0], s)
	car.runtime.V = vKmh / 3.6
	car.prepare()
	return car
}

// refresh 重建网格并刷新所有车辆快照
func refresh(ctx *testContext, m *Manager) {
	for _, c := range m.cars.Data() {
		c.prepare()
	}
	ctx.cm.UpdateGrid(m.ActiveVehicles())
}

func TestCruiseOnEmptyRoad(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 100, 20)
	refresh(ctx, m)

	ac := car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
	assert.Equal(t, car.profile.MaxAcceleration, ac.A)
	// 巡航目标不超过个体上限与路段限速（residential默认30千米/时）
	assert.LessOrEqual(t, ac.TargetV, car.maxV)
	assert.LessOrEqual(t, ac.TargetV, 30.0/3.6+1e-9)
}

func TestFollowingPriorityBands(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, func(c *config.Config) {
		// 只测跟车分层，关闭紧急避撞
		c.Control.Behavior.DisableCollisionResponse = true
	})
	m.Init(nil)

	follower := carOnRoad(ctx, m, 20, 40)
	lead := carOnRoad(ctx, m, 60, 20)
	refresh(ctx, m)

	// 间距40米，超出1.5倍安全距离（40千米/时对应约22米），巡航
	ac := follower.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)

	// 间距25米，处于匹配区间，跟随前车车速
	lead.placeOn(lead.route.Edges[0], 45)
	refresh(ctx, m)
	ac = follower.controller.update(1)
	assert.Equal(t, entity.BehaviorFollowing, ac.State)
	assert.InDelta(t, lead.snapshot.V, ac.TargetV, 1e-9)

	// 间距18米，低于安全距离，目标降到前车车速以下
	lead.placeOn(lead.route.Edges[0], 38)
	refresh(ctx, m)
	ac = follower.controller.update(1)
	assert.Equal(t, entity.BehaviorFollowing, ac.State)
	assert.LessOrEqual(t, ac.TargetV, lead.snapshot.V*followCloseFactor+1e-9)
}

func TestFollowingIgnoresStoppedAtControl(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, func(c *config.Config) {
		c.Control.Behavior.DisableCollisionResponse = true
	})
	m.Init(nil)

	follower := carOnRoad(ctx, m, 20, 40)
	lead := carOnRoad(ctx, m, 45, 0)
	lead.runtime.State = entity.BehaviorStoppedAtSign
	lead.runtime.StoppedAtControl = true
	refresh(ctx, m)

	// 停在控制点前的车不作为跟车对象，由停车标志逻辑接管
	ac := follower.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
}

func TestEmergencyBraking(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)

	a := carOnRoad(ctx, m, 20, 30)
	carOnRoad(ctx, m, 25, 0) // 5米间距
	refresh(ctx, m)

	ac := a.controller.update(1)
	assert.Equal(t, entity.BehaviorEmergencyBraking, ac.State)
	assert.Equal(t, a.profile.MaxBraking, ac.A)
	assert.Equal(t, 0.0, ac.TargetV)
}

func TestEmergencyBrakingDisabled(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, func(c *config.Config) {
		c.Control.Behavior.DisableCollisionResponse = true
	})
	m.Init(nil)

	a := carOnRoad(ctx, m, 20, 30)
	carOnRoad(ctx, m, 25, 0)
	refresh(ctx, m)

	ac := a.controller.update(1)
	assert.NotEqual(t, entity.BehaviorEmergencyBraking, ac.State)
}

func TestStopSignStopWaitRelease(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 50, 0)
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	ctx.sm.Init(nil, []entity.StopSign{{ID: 5, Position: edge.PositionAt(60)}})

	// 已在停止线前低速，转入停住状态
	ac := car.controller.update(1)
	require.Equal(t, entity.BehaviorStoppedAtSign, ac.State)
	assert.True(t, ac.StoppedAtControl)
	car.applyBehavior(ac, 1)
	car.prepare()

	// 最短等待未满，保持停住
	ac = car.controller.update(1)
	assert.Equal(t, entity.BehaviorStoppedAtSign, ac.State)
	car.applyBehavior(ac, 1)
	car.prepare()

	// 等待期满且路口无活动车辆，放行并恢复巡航
	ac = car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
	car.applyBehavior(ac, 1)
	car.prepare()

	// 刚通过的标志被记住，不会立即再次拦停
	ac = car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
}

func TestStopSignYielding(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 50, 0)
	other := carOnRoad(ctx, m, 60, 20) // 路口内的活动车辆
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	ctx.sm.Init(nil, []entity.StopSign{{ID: 5, Position: edge.PositionAt(60)}})

	car.runtime.State = entity.BehaviorStoppedAtSign
	car.prepare()
	car.controller.waited = 10 // 等待早已期满

	ac := car.controller.update(1)
	assert.Equal(t, entity.BehaviorYielding, ac.State)
	assert.True(t, ac.StoppedAtControl)

	// 路口车辆离开后放行
	other.runtime.V = 0
	refresh(ctx, m)
	car.runtime.State = entity.BehaviorYielding
	car.prepare()
	ac = car.controller.update(1)
	assert.NotEqual(t, entity.BehaviorYielding, ac.State)
	assert.NotEqual(t, entity.BehaviorStoppedAtSign, ac.State)
}

func TestStopSignApproach(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 40, 30)
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	ctx.sm.Init(nil, []entity.StopSign{{ID: 5, Position: edge.PositionAt(60)}})

	// 进入制动区，目标速度随剩余距离衰减
	ac := car.controller.update(1)
	assert.Equal(t, entity.BehaviorApproachingStop, ac.State)
	assert.Less(t, ac.TargetV, car.snapshot.V)
}

func TestSignalStopAndGo(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 50, 0)
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	// ID为2的信号灯初始相位为红
	ctx.sm.Init([]entity.SignalState{{ID: 2, Position: edge.PositionAt(60)}}, nil)
	ctx.sm.Prepare()

	ac := car.controller.update(1)
	require.Equal(t, entity.BehaviorStoppedAtSignal, ac.State)
	assert.True(t, ac.StoppedAtControl)
	car.applyBehavior(ac, 1)
	car.prepare()

	// 红灯未变，保持停住
	ac = car.controller.update(1)
	assert.Equal(t, entity.BehaviorStoppedAtSignal, ac.State)
	car.applyBehavior(ac, 1)
	car.prepare()

	// 红灯走完转绿后放行
	ctx.sm.Update(17)
	ctx.sm.Prepare()
	ac = car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
}

func TestSignalGreenPassThrough(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	car := carOnRoad(ctx, m, 50, 20)
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	// ID为0的信号灯初始相位为绿
	ctx.sm.Init([]entity.SignalState{{ID: 0, Position: edge.PositionAt(60)}}, nil)
	ctx.sm.Prepare()

	ac := car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
}

func TestControlBehindIsIgnored(t *testing.T) {
	segments, dests := straightRoad()
	ctx, m := newSim(segments, dests, nil)
	m.Init(nil)
	// 停车标志在车辆正后方，不在前方锥形区域内
	car := carOnRoad(ctx, m, 50, 20)
	refresh(ctx, m)

	edge := ctx.roadNet.GetEdge(1)
	ctx.sm.Init(nil, []entity.StopSign{{ID: 5, Position: edge.PositionAt(30)}})

	ac := car.controller.update(1)
	assert.Equal(t, entity.BehaviorCruising, ac.State)
}
