// 地理数学工具包，提供基于WGS84经纬度坐标的距离、方位角与折线插值计算
package geomath

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthRadius = 6370986.884258304 // 地球半径（米）
	pi180       = math.Pi / 180.0
	pi180Rev    = 180.0 / math.Pi
)

// Distance 计算两点间的大圆距离
// 功能：使用haversine公式计算两个经纬度点之间的球面距离
// 参数：p,q-经纬度坐标点（orb.Point，X为经度，Y为纬度）
// 返回：距离（米）
func Distance(p, q orb.Point) float64 {
	lat1 := p.Lat() * pi180
	lon1 := p.Lon() * pi180
	lat2 := q.Lat() * pi180
	lon2 := q.Lon() * pi180
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * earthRadius
}

// Bearing 计算两点间的初始方位角
// 功能：计算从p指向q的大圆初始方位角
// 参数：p,q-经纬度坐标点
// 返回：方位角（度），北为0，顺时针，范围[0, 360)
func Bearing(p, q orb.Point) float64 {
	lat1 := p.Lat() * pi180
	lon1 := p.Lon() * pi180
	lat2 := q.Lat() * pi180
	lon2 := q.Lon() * pi180
	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	b := math.Atan2(y, x) * pi180Rev
	if b < 0 {
		b += 360
	}
	return b
}

// NormalizeDelta 方位角差值归一化
// 功能：将任意角度差归一化到(-180, 180]区间
// 参数：delta-角度差（度）
// 返回：归一化后的角度差（度），左转为负，右转为正
func NormalizeDelta(delta float64) float64 {
	for delta > 180 {
		delta -= 360
	}
	for delta <= -180 {
		delta += 360
	}
	return delta
}

// PolylineLength 计算折线总长度
// 功能：累加折线相邻点之间的大圆距离
// 参数：line-折线（经纬度坐标序列）
// 返回：总长度（米），点数不足2时返回0
func PolylineLength(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}

// PointAlong 折线上指定里程处的坐标
// 功能：沿折线从起点推进s米，对所在线段做线性插值
// 参数：line-折线，s-里程（米）
// 返回：插值坐标
// 说明：s<=0返回起点，s超出折线长度返回终点（夹取到折线端点）
func PointAlong(line orb.LineString, s float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if s <= 0 || len(line) == 1 {
		return line[0]
	}
	for i := 1; i < len(line); i++ {
		seg := Distance(line[i-1], line[i])
		if s <= seg && seg > 0 {
			t := s / seg
			return orb.Point{
				line[i-1].X() + (line[i].X()-line[i-1].X())*t,
				line[i-1].Y() + (line[i].Y()-line[i-1].Y())*t,
			}
		}
		s -= seg
	}
	return line[len(line)-1]
}

// BearingAlong 折线上指定里程处的前进方位角
// 功能：取s处向前看ahead米的两点连线方位角（超出折线末端时夹取）
// 参数：line-折线，s-里程（米），ahead-向前看的距离（米）
// 返回：方位角（度），折线退化时返回0
func BearingAlong(line orb.LineString, s, ahead float64) float64 {
	if len(line) < 2 {
		return 0
	}
	from := PointAlong(line, s)
	to := PointAlong(line, s+ahead)
	if from == to {
		// 已到折线末端，取最后一段的方向
		return Bearing(line[len(line)-2], line[len(line)-1])
	}
	return Bearing(from, to)
}

// DistanceToSegment 点到线段的最小距离
// 功能：在局部等距圆柱投影下计算点到线段的垂距
// 参数：p-目标点，a,b-线段端点
// 返回：最小距离（米）
// 算法说明：
// 1. 以p的纬度做cos缩放，将经纬度近似映射到局部平面（米）
// 2. 在平面上求投影参数t并夹取到[0,1]
// 3. 返回p到投影点的欧氏距离
// 说明：城市尺度（公里级）下近似误差可忽略
func DistanceToSegment(p, a, b orb.Point) float64 {
	cosLat := math.Cos(p.Lat() * pi180)
	ax := (a.Lon() - p.Lon()) * cosLat
	ay := a.Lat() - p.Lat()
	bx := (b.Lon() - p.Lon()) * cosLat
	by := b.Lat() - p.Lat()
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = -(ax*dx + ay*dy) / l2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Sqrt(cx*cx+cy*cy) * pi180 * earthRadius
}

// DistanceToPolyline 点到折线的最小距离
// 功能：取点到折线每条线段距离的最小值
// 参数：p-目标点，line-折线
// 返回：最小距离（米），折线为空时返回+Inf
func DistanceToPolyline(p orb.Point, line orb.LineString) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return Distance(p, line[0])
	}
	minD := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := DistanceToSegment(p, line[i-1], line[i]); d < minD {
			minD = d
		}
	}
	return minD
}

// Offset 从一点沿指定方位角推进指定距离
// 功能：局部平面近似下的坐标平移，用于碰撞预测的恒速外推
// 参数：p-起点，bearingDeg-方位角（度），dist-距离（米）
// 返回：推进后的坐标
func Offset(p orb.Point, bearingDeg, dist float64) orb.Point {
	rad := bearingDeg * pi180
	dLat := dist * math.Cos(rad) / earthRadius * pi180Rev
	cosLat := math.Cos(p.Lat() * pi180)
	if cosLat < 1e-9 {
		cosLat = 1e-9
	}
	dLon := dist * math.Sin(rad) / (earthRadius * cosLat) * pi180Rev
	return orb.Point{p.Lon() + dLon, p.Lat() + dLat}
}
