package collision

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
)

const metersPerDegLat = 111194.9 // 每纬度1度的近似米数

// cellKey 网格单元坐标
type cellKey struct {
	X int32
	Y int32
}

// grid 均匀空间网格
// 功能：把车辆按位置装入固定尺寸的单元，供局部邻域查询
// 说明：每步由UpdateGrid整体重建而非增量维护，重建后不存在陈旧单元
type grid struct {
	cellSize float64
	// 经度米换算系数，取首次装入车辆的纬度，城市尺度内为常数
	metersPerDegLon float64
	cells           map[cellKey][]entity.IVehicle
}

func newGrid(cellSize float64) *grid {
	return &grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]entity.IVehicle),
	}
}

// keyOf 计算位置所在的单元坐标
func (g *grid) keyOf(p orb.Point) cellKey {
	return cellKey{
		X: int32(math.Floor(p.Lon() * g.metersPerDegLon / g.cellSize)),
		Y: int32(math.Floor(p.Lat() * metersPerDegLat / g.cellSize)),
	}
}

// rebuild 从车辆快照整体重建网格
func (g *grid) rebuild(vehicles []entity.IVehicle) {
	g.cells = make(map[cellKey][]entity.IVehicle, len(g.cells))
	if g.metersPerDegLon == 0 && len(vehicles) > 0 {
		g.metersPerDegLon = metersPerDegLat * math.Cos(vehicles[0].Position().Lat()*math.Pi/180)
	}
	for _, v := range vehicles {
		key := g.keyOf(v.Position())
		g.cells[key] = append(g.cells[key], v)
	}
}

// scan 遍历pos所在单元及周边单元中的车辆
// 参数：pos-中心位置，reach-查询半径（米），fn-回调
// 说明：默认为3x3邻域；查询半径超过单元尺寸时按需扩大扫描圈数，
// 保证跨单元边界不漏报
func (g *grid) scan(pos orb.Point, reach float64, fn func(v entity.IVehicle)) {
	n := int32(1)
	if g.cellSize > 0 {
		if k := int32(math.Ceil(reach / g.cellSize)); k > n {
			n = k
		}
	}
	center := g.keyOf(pos)
	for dx := -n; dx <= n; dx++ {
		for dy := -n; dy <= n; dy++ {
			for _, v := range g.cells[cellKey{X: center.X + dx, Y: center.Y + dy}] {
				fn(v)
			}
		}
	}
}

// occupiedCells 非空单元数
func (g *grid) occupiedCells() int {
	return len(g.cells)
}
