package roadnet

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

const bearingLookAhead = 10 // 朝向计算的前视距离（米）

// Edge 有向路段
// 功能：连接两个节点的有向边，携带折线几何与通行属性
// 说明：双向原始路段展开为两条几何互逆、起终点互换的边，
// 保证整张图始终是有向图，A*不需要无向遍历的特殊处理
type Edge struct {
	id       int64
	fromID   int64
	toID     int64
	geometry orb.LineString
	length   float64 // 由折线推导（米）
	maxSpeed float64 // 限速（千米/时）
	lanes    int32
	oneWay   bool
	name     string
}

func newEdge(id, fromID, toID int64, geometry orb.LineString, maxSpeed float64, lanes int32, oneWay bool, name string) *Edge {
	return &Edge{
		id:       id,
		fromID:   fromID,
		toID:     toID,
		geometry: geometry,
		length:   geomath.PolylineLength(geometry),
		maxSpeed: maxSpeed,
		lanes:    lanes,
		oneWay:   oneWay,
		name:     name,
	}
}

// ID 获取边ID
func (e *Edge) ID() int64 {
	return e.id
}

// FromID 获取起点节点ID
func (e *Edge) FromID() int64 {
	return e.fromID
}

// ToID 获取终点节点ID
func (e *Edge) ToID() int64 {
	return e.toID
}

// Geometry 获取边的折线几何
func (e *Edge) Geometry() orb.LineString {
	return e.geometry
}

// Length 获取边长度（米）
func (e *Edge) Length() float64 {
	return e.length
}

// MaxSpeed 获取限速（千米/时）
func (e *Edge) MaxSpeed() float64 {
	return e.maxSpeed
}

// Lanes 获取车道数
func (e *Edge) Lanes() int32 {
	return e.lanes
}

// OneWay 是否单向
func (e *Edge) OneWay() bool {
	return e.oneWay
}

// Name 获取道路名
func (e *Edge) Name() string {
	return e.name
}

// PositionAt 里程s处的坐标
// 功能：沿折线线性插值，s夹取到[0, length]
func (e *Edge) PositionAt(s float64) orb.Point {
	return geomath.PointAlong(e.geometry, s)
}

// BearingAt 里程s处的前进方位角
// 功能：取s处向前看10米（夹取到边末端）的连线方位角
// 返回：方位角（度）
func (e *Edge) BearingAt(s float64) float64 {
	return geomath.BearingAlong(e.geometry, s, bearingLookAhead)
}

// DistanceToPoint 点到边几何的最小距离（米）
func (e *Edge) DistanceToPoint(p orb.Point) float64 {
	return geomath.DistanceToPolyline(p, e.geometry)
}

// ProjectPoint 点在边上的投影里程
// 功能：返回折线上距p最近的采样点对应的里程
// 说明：按折线顶点粒度采样，城市路段的顶点密度下精度足够
func (e *Edge) ProjectPoint(p orb.Point) float64 {
	best := 0.0
	bestDist := geomath.Distance(p, e.geometry[0])
	s := 0.0
	for i := 1; i < len(e.geometry); i++ {
		s += geomath.Distance(e.geometry[i-1], e.geometry[i])
		if d := geomath.Distance(p, e.geometry[i]); d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}

func (e *Edge) String() string {
	return fmt.Sprintf("Edge{id=%d, %d->%d, len=%.1fm}", e.id, e.fromID, e.toID, e.length)
}

// reverseGeometry 生成反向折线
func reverseGeometry(line orb.LineString) orb.LineString {
	rev := make(orb.LineString, len(line))
	for i, pt := range line {
		rev[len(line)-1-i] = pt
	}
	return rev
}
