package roadnet_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/entity/roadnet"
	"github.com/Lemirq/qhacks-sub000/utils/config"
	"github.com/Lemirq/qhacks-sub000/utils/input"
)

// 测试路网基准坐标（约43.26N，纬向0.001度约111米）
const (
	baseLon = -79.92
	baseLat = 43.26
)

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
	c.Control.Seed = 42
	return &testContext{
		clk: clock.New(c.Control.Step),
		cfg: config.NewRuntimeConfig(c),
	}
}

func pt(dLon, dLat float64) orb.Point {
	return orb.Point{baseLon + dLon, baseLat + dLat}
}

func seg(id, from, to int64, pts ...orb.Point) input.Segment {
	return input.Segment{
		ID:       id,
		FromID:   from,
		ToID:     to,
		Geometry: orb.LineString(pts),
		Class:    "residential",
	}
}

func TestInitBuildsDirectedGraph(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	// 两条双向路段在节点2相接
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.001, 0)),
		seg(102, 2, 3, pt(0.001, 0), pt(0.002, 0)),
	}, nil)

	assert.Equal(t, 3, m.NodeCount())
	assert.Equal(t, 4, m.EdgeCount())

	e := m.GetEdge(101)
	assert.Equal(t, int64(1), e.FromID())
	assert.Equal(t, int64(2), e.ToID())
	assert.InDelta(t, 81, e.Length(), 2) // 经向0.001度在43.26N约81米
	assert.Equal(t, 30.0, e.MaxSpeed())  // residential默认限速

	// 双向路段的反向边：ID取负，起终点互换，几何取逆
	rev := m.GetEdge(-101)
	assert.Equal(t, int64(2), rev.FromID())
	assert.Equal(t, int64(1), rev.ToID())
	assert.Equal(t, e.Geometry()[0], rev.Geometry()[len(rev.Geometry())-1])
	assert.InDelta(t, e.Length(), rev.Length(), 1e-9)

	_, err := m.GetEdgeOrError(999)
	assert.Error(t, err)
}

func TestInitSkipsDegenerateGeometry(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	m.Init([]input.Segment{
		{ID: 1, FromID: 1, ToID: 2, Geometry: orb.LineString{pt(0, 0)}, Class: "residential"},
		seg(2, 3, 4, pt(0, 0), pt(0.001, 0)),
	}, nil)
	assert.Equal(t, 4, m.EdgeCount()) // 退化路段被跳过，只剩一条双向路段
	_, err := m.GetEdgeOrError(1)
	assert.Error(t, err)
}

func TestIntersectionReclassification(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	// T字形：节点2关联4条有向边（两条双向路段），应判定为交叉口
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.001, 0)),
		seg(102, 2, 3, pt(0.001, 0), pt(0.001, 0.001)),
	}, nil)

	assert.Equal(t, entity.NodeKindIntersection, m.GetNode(2).Kind())
	assert.Equal(t, entity.NodeKindSpawn, m.GetNode(1).Kind())
	assert.Equal(t, entity.NodeKindSpawn, m.GetNode(3).Kind())
}

func TestDestinationNodeMarking(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.002, 0)),
	}, []input.Destination{
		{ID: 1, Name: "mall", Lon: baseLon + 0.002, Lat: baseLat + 0.0001, Category: "building", Weight: 1},
		{ID: 2, Name: "lot", Lon: baseLon, Lat: baseLat - 0.0001, Category: "parking_lot", Weight: 1},
	})

	assert.Equal(t, entity.NodeKindDestination, m.GetNode(2).Kind())
	assert.Equal(t, entity.NodeKindParking, m.GetNode(1).Kind())
}

func TestFindNearestNode(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.001, 0)),
		seg(102, 2, 3, pt(0.001, 0), pt(0.002, 0)),
	}, nil)

	n := m.FindNearestNode(pt(0.00101, 0.0002))
	require.NotNil(t, n)
	assert.Equal(t, int64(2), n.ID())

	empty := roadnet.NewManager(newTestContext())
	empty.Init(nil, nil)
	assert.Nil(t, empty.FindNearestNode(pt(0, 0)))
	assert.Nil(t, empty.RandomEdge())
	assert.Nil(t, empty.RandomDestination())
}

func TestFindEdgesNearPositionSorted(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	// 两条平行的纬向路段，相距约111米
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.002, 0)),
		seg(102, 3, 4, pt(0, 0.001), pt(0.002, 0.001)),
	}, nil)

	// 查询点紧贴路段101
	found := m.FindEdgesNearPosition(pt(0.001, 0.0001), 200)
	require.NotEmpty(t, found)
	assert.Equal(t, int64(101), abs64(found[0].ID()))
	prev := -1.0
	for _, e := range found {
		d := e.DistanceToPoint(pt(0.001, 0.0001))
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}

	assert.Empty(t, m.FindEdgesNearPosition(pt(0.001, 0.01), 50))
}

func TestRandomDestinationWeighted(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.001, 0)),
	}, []input.Destination{
		{ID: 1, Lon: baseLon, Lat: baseLat, Category: "building", Weight: 9},
		{ID: 2, Lon: baseLon + 0.001, Lat: baseLat, Category: "building", Weight: 1},
	})

	counts := map[int64]int{}
	for i := 0; i < 2000; i++ {
		d := m.RandomDestination()
		require.NotNil(t, d)
		counts[d.ID()]++
	}
	// 权重9:1，抽样频率应当明显偏向前者
	assert.Greater(t, counts[1], 1500)
	assert.Greater(t, counts[2], 0)
}

func TestRandomDestinationSingle(t *testing.T) {
	m := roadnet.NewManager(newTestContext())
	m.Init([]input.Segment{
		seg(101, 1, 2, pt(0, 0), pt(0.001, 0)),
	}, []input.Destination{
		{ID: 7, Lon: baseLon, Lat: baseLat, Category: "building", Weight: 0.5},
	})
	for i := 0; i < 10; i++ {
		assert.Equal(t, int64(7), m.RandomDestination().ID())
	}
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
