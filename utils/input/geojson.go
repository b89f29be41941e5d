package input

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// readGeoJSON 读取GeoJSON特征集合文件
func readGeoJSON(filename string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read '%s'", filename)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "can't unmarshal '%s'", filename)
	}
	return fc, nil
}

// featureCenter 取特征几何的代表点
// 说明：点几何直接取坐标，多边形取外环顶点均值（地图UI导出的建筑轮廓）
func featureCenter(f *geojson.Feature) (lon, lat float64, ok bool) {
	g := f.Geometry
	if g == nil {
		return 0, 0, false
	}
	switch {
	case g.IsPoint():
		return g.Point[0], g.Point[1], true
	case g.IsPolygon():
		if len(g.Polygon) == 0 || len(g.Polygon[0]) == 0 {
			return 0, 0, false
		}
		for _, pt := range g.Polygon[0] {
			lon += pt[0]
			lat += pt[1]
		}
		n := float64(len(g.Polygon[0]))
		return lon / n, lat / n, true
	}
	return 0, 0, false
}

// readDestinationsGeoJSON 从GeoJSON覆盖文件加载目的地
// 功能：解析地图UI导出的目的地特征集合
// 参数：filename-文件路径
// 返回：目的地列表
// 说明：权重缺失或非正时取1，分类缺失时取building
func readDestinationsGeoJSON(filename string) ([]Destination, error) {
	fc, err := readGeoJSON(filename)
	if err != nil {
		return nil, err
	}
	dests := make([]Destination, 0, len(fc.Features))
	for i, f := range fc.Features {
		lon, lat, ok := featureCenter(f)
		if !ok {
			log.Warnf("destination feature %d has unsupported geometry, skip", i)
			continue
		}
		d := Destination{
			ID:       int64(i + 1),
			Lon:      lon,
			Lat:      lat,
			Category: "building",
			Weight:   1,
		}
		if v, err := f.PropertyInt("id"); err == nil {
			d.ID = int64(v)
		}
		if v, err := f.PropertyString("name"); err == nil {
			d.Name = v
		}
		if v, err := f.PropertyString("category"); err == nil {
			d.Category = v
		}
		if v, err := f.PropertyFloat64("weight"); err == nil && v > 0 {
			d.Weight = v
		}
		if v, err := f.PropertyInt("capacity"); err == nil {
			d.Capacity = int32(v)
		}
		dests = append(dests, d)
	}
	return dests, nil
}

// readSpawnPointsGeoJSON 从GeoJSON覆盖文件加载生成点
// 参数：filename-文件路径
// 返回：生成点列表
// 说明：速率缺失或非正时由调用方补默认值
func readSpawnPointsGeoJSON(filename string) ([]SpawnPoint, error) {
	fc, err := readGeoJSON(filename)
	if err != nil {
		return nil, err
	}
	sps := make([]SpawnPoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		lon, lat, ok := featureCenter(f)
		if !ok {
			log.Warnf("spawn point feature %d has unsupported geometry, skip", i)
			continue
		}
		sp := SpawnPoint{Lon: lon, Lat: lat}
		if v, err := f.PropertyString("id"); err == nil {
			sp.ID = v
		}
		if v, err := f.PropertyFloat64("rate"); err == nil {
			sp.Rate = v
		}
		if v, err := f.PropertyString("direction"); err == nil {
			sp.Direction = v
		}
		sps = append(sps, sp)
	}
	return sps, nil
}
