package geomath_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

func TestDistance(t *testing.T) {
	p1 := orb.Point{37.6417350769043, 55.751849391735284}
	p2 := orb.Point{37.668514251708984, 55.73261980350401}
	assert.InDelta(t, 2716.9, geomath.Distance(p1, p2), 5)
	assert.Zero(t, geomath.Distance(p1, p1))
}

func TestBearing(t *testing.T) {
	p := orb.Point{116.39, 39.90}
	// 正北
	assert.InDelta(t, 0, geomath.Bearing(p, orb.Point{116.39, 39.91}), 0.5)
	// 正东
	assert.InDelta(t, 90, geomath.Bearing(p, orb.Point{116.40, 39.90}), 0.5)
	// 正南
	assert.InDelta(t, 180, geomath.Bearing(p, orb.Point{116.39, 39.89}), 0.5)
	// 正西
	assert.InDelta(t, 270, geomath.Bearing(p, orb.Point{116.38, 39.90}), 0.5)
}

func TestNormalizeDelta(t *testing.T) {
	assert.Equal(t, 0.0, geomath.NormalizeDelta(360))
	assert.Equal(t, 180.0, geomath.NormalizeDelta(180))
	assert.Equal(t, 180.0, geomath.NormalizeDelta(-180))
	assert.Equal(t, -90.0, geomath.NormalizeDelta(270))
	assert.Equal(t, 10.0, geomath.NormalizeDelta(-350))
}

func TestPolyline(t *testing.T) {
	line := orb.LineString{
		{116.39, 39.90},
		{116.39, 39.91},
		{116.39, 39.92},
	}
	length := geomath.PolylineLength(line)
	assert.InDelta(t, 2224, length, 10)

	// 端点与中点插值
	assert.Equal(t, line[0], geomath.PointAlong(line, -1))
	assert.Equal(t, line[2], geomath.PointAlong(line, length+10))
	mid := geomath.PointAlong(line, length/2)
	assert.InDelta(t, 39.91, mid.Lat(), 1e-6)

	// 整条折线朝北
	assert.InDelta(t, 0, geomath.BearingAlong(line, length/2, 10), 0.5)
	// 超出末端时取最后一段的方向
	assert.InDelta(t, 0, geomath.BearingAlong(line, length+100, 10), 0.5)
}

func TestDistanceToPolyline(t *testing.T) {
	line := orb.LineString{
		{116.39, 39.90},
		{116.39, 39.92},
	}
	// 折线中部正东约850米处
	p := geomath.Offset(orb.Point{116.39, 39.91}, 90, 850)
	assert.InDelta(t, 850, geomath.DistanceToPolyline(p, line), 5)
	// 折线端点上
	assert.InDelta(t, 0, geomath.DistanceToPolyline(orb.Point{116.39, 39.90}, line), 1e-6)
}

func TestOffset(t *testing.T) {
	p := orb.Point{116.39, 39.90}
	q := geomath.Offset(p, 0, 1000)
	assert.InDelta(t, 1000, geomath.Distance(p, q), 2)
	assert.InDelta(t, 0, geomath.Bearing(p, q), 0.5)

	q = geomath.Offset(p, 90, 500)
	assert.InDelta(t, 500, geomath.Distance(p, q), 2)
	assert.InDelta(t, 90, geomath.Bearing(p, q), 0.5)
}
