package collision_test

import (
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/entity/collision"
	"github.com/Lemirq/qhacks-sub000/utils/config"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
	"github.com/Lemirq/qhacks-sub000/utils/randengine"
)

var origin = orb.Point{-79.92, 43.26}

type testContext struct {
	clk *clock.Clock
	cfg *config.RuntimeConfig
}

func (c *testContext) Clock() *clock.Clock                        { return c.clk }
func (c *testContext) RoadNetManager() entity.IRoadNetManager     { return nil }
func (c *testContext) Router() entity.IRouter                     { return nil }
func (c *testContext) CollisionManager() entity.ICollisionManager { return nil }
func (c *testContext) SignalManager() entity.ISignalManager       { return nil }
func (c *testContext) VehicleManager() entity.IVehicleManager     { return nil }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig       { return c.cfg }

func newTestContext() *testContext {
	c := config.Config{}
	c.Control.Step = config.ControlStep{Start: 0, Total: 1000, Interval: 1}
	return &testContext{
		clk: clock.New(c.Control.Step),
		cfg: config.NewRuntimeConfig(c),
	}
}

// fakeVehicle 碰撞查询用的车辆快照替身
type fakeVehicle struct {
	id      int32
	pos     orb.Point
	bearing float64
	v       float64
}

func (f *fakeVehicle) ID() int32                  { return f.id }
func (f *fakeVehicle) Class() entity.VehicleClass { return entity.VehicleClassSedan }
func (f *fakeVehicle) Position() orb.Point        { return f.pos }
func (f *fakeVehicle) Bearing() float64           { return f.bearing }
func (f *fakeVehicle) V() float64                 { return f.v }
func (f *fakeVehicle) CurrentEdgeID() int64       { return 0 }
func (f *fakeVehicle) NextEdgeID() int64          { return 0 }
func (f *fakeVehicle) State() entity.BehaviorState {
	return entity.BehaviorCruising
}
func (f *fakeVehicle) StoppedAtControl() bool { return false }

// at 以origin为原点，向北dy米、向东dx米处的车辆
func at(id int32, dx, dy float64) *fakeVehicle {
	p := geomath.Offset(origin, 90, dx)
	p = geomath.Offset(p, 0, dy)
	return &fakeVehicle{id: id, pos: p}
}

func TestGetNearbyVehiclesMatchesBruteForce(t *testing.T) {
	m := collision.NewManager(newTestContext())
	gen := randengine.New(7)

	// 在约400x400米的范围内随机撒80辆车，跨多个50米网格单元
	vehicles := make([]entity.IVehicle, 0, 80)
	for i := 0; i < 80; i++ {
		vehicles = append(vehicles, at(int32(i+1), gen.Float64()*400, gen.Float64()*400))
	}
	m.UpdateGrid(vehicles)

	for _, center := range []entity.IVehicle{vehicles[0], vehicles[17], vehicles[63]} {
		for _, radius := range []float64{30, 75, 160} {
			got := m.GetNearbyVehicles(center, radius)
			gotIDs := make([]int32, 0, len(got))
			for _, v := range got {
				gotIDs = append(gotIDs, v.ID())
			}
			wantIDs := make([]int32, 0)
			for _, v := range vehicles {
				if v.ID() == center.ID() {
					continue
				}
				if geomath.Distance(center.Position(), v.Position()) <= radius {
					wantIDs = append(wantIDs, v.ID())
				}
			}
			sort.Slice(gotIDs, func(i, j int) bool { return gotIDs[i] < gotIDs[j] })
			sort.Slice(wantIDs, func(i, j int) bool { return wantIDs[i] < wantIDs[j] })
			assert.Equal(t, wantIDs, gotIDs, "radius %.0f", radius)
		}
	}
}

func TestImmediateCollision(t *testing.T) {
	m := collision.NewManager(newTestContext())
	a := at(1, 0, 0)
	b := at(2, 0, 5) // 5米，小于2倍安全气泡（8米）
	c := at(3, 0, 30)
	m.UpdateGrid([]entity.IVehicle{a, b, c})

	hit, ok := m.CheckImmediateCollision(a)
	require.True(t, ok)
	assert.Equal(t, int32(2), hit.ID())

	_, ok = m.CheckImmediateCollision(c)
	assert.False(t, ok)
}

func TestPredictiveCollisionHeadOn(t *testing.T) {
	m := collision.NewManager(newTestContext())
	// 相向而行：40米间距，相对速度20米/秒
	a := at(1, 0, 0)
	a.bearing = 0
	a.v = 10
	b := at(2, 0, 40)
	b.bearing = 180
	b.v = 10
	m.UpdateGrid([]entity.IVehicle{a, b})

	ttc, ok := m.CheckPredictiveCollision(a)
	require.True(t, ok)
	assert.InDelta(t, 2.0, ttc, 0.51)
	assert.True(t, m.RequiresEmergencyBrake(a))
}

func TestPredictiveCollisionParallel(t *testing.T) {
	m := collision.NewManager(newTestContext())
	// 同向同速，间距保持不变，不应预测到碰撞
	a := at(1, 0, 0)
	a.bearing = 0
	a.v = 10
	b := at(2, 0, 30)
	b.bearing = 0
	b.v = 10
	m.UpdateGrid([]entity.IVehicle{a, b})

	_, ok := m.CheckPredictiveCollision(a)
	assert.False(t, ok)
	assert.False(t, m.RequiresEmergencyBrake(a))
}

func TestSafeFollowingDistance(t *testing.T) {
	m := collision.NewManager(newTestContext())
	assert.Equal(t, 20.0, m.SafeFollowingDistance(10)) // 两秒法则
	assert.Equal(t, 8.0, m.SafeFollowingDistance(1))   // 下限为2倍安全气泡
}

func TestStats(t *testing.T) {
	m := collision.NewManager(newTestContext())
	m.UpdateGrid([]entity.IVehicle{at(1, 0, 0), at(2, 0, 200)})
	stats := m.Stats()
	assert.Equal(t, 2, stats.TrackedVehicles)
	assert.Equal(t, 2, stats.OccupiedCells)
}
