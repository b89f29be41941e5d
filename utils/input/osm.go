package input

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// OSMScanner OSM数据扫描器接口
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// 可通行的道路分类（highway标签值）
var drivableHighways = map[string]bool{
	"motorway": true, "trunk": true, "primary": true, "secondary": true,
	"tertiary": true, "unclassified": true, "residential": true,
	"motorway_link": true, "trunk_link": true, "primary_link": true,
	"secondary_link": true, "tertiary_link": true, "living_street": true,
	"service": true,
}

// rawWay 第一遍扫描得到的原始way
type rawWay struct {
	id       int64
	nodeIDs  []osm.NodeID
	class    string
	maxSpeed float64
	lanes    int32
	oneWay   bool
	name     string
}

// newScanner 根据文件扩展名创建对应的OSM扫描器
func newScanner(filename string, file *os.File) (OSMScanner, error) {
	switch ext := filepath.Ext(filename); ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, errors.Errorf("unsupported map file extension '%s'", ext)
	}
}

// readOSM 读取OSM文件
// 功能：从.osm/.xml/.pbf文件中提取可行驶路段与交通控制点
// 参数：filename-文件路径
// 返回：路段列表、信号灯节点列表、停车标志节点列表
// 算法说明：
// 1. 第一遍扫描way：保留带可通行highway标签的way，解析限速、车道数、
//    单双向、道路名，并统计节点被多少条way引用
// 2. 第二遍扫描node：记录第一遍引用的节点坐标，提取
//    highway=traffic_signals/stop的交通控制节点
// 3. 在被多条way共享的节点处切分way，产生路段（共享节点即交叉口候选）
func readOSM(filename string) ([]Segment, []ControlNode, []ControlNode, error) {
	ways, nodeUse, err := scanWays(filename)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "can't parse OSM ways")
	}
	coords, signals, stopSigns, err := scanNodes(filename, nodeUse)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "can't parse OSM nodes")
	}

	segments := make([]Segment, 0, len(ways))
	nextID := int64(1)
	for _, w := range ways {
		// 在共享节点处切分
		start := 0
		for i := 1; i < len(w.nodeIDs); i++ {
			last := i == len(w.nodeIDs)-1
			if !last && nodeUse[w.nodeIDs[i]] < 2 {
				continue
			}
			geom := make(orb.LineString, 0, i-start+1)
			ok := true
			for _, nid := range w.nodeIDs[start : i+1] {
				pt, found := coords[nid]
				if !found {
					ok = false
					break
				}
				geom = append(geom, pt)
			}
			if ok && len(geom) >= 2 {
				segments = append(segments, Segment{
					ID:       nextID,
					FromID:   int64(w.nodeIDs[start]),
					ToID:     int64(w.nodeIDs[i]),
					Geometry: geom,
					Class:    w.class,
					MaxSpeed: w.maxSpeed,
					Lanes:    w.lanes,
					OneWay:   w.oneWay,
					Name:     w.name,
				})
				nextID++
			}
			start = i
		}
	}
	return segments, signals, stopSigns, nil
}

// scanWays 第一遍扫描，提取可行驶way并统计节点引用次数
func scanWays(filename string) ([]rawWay, map[osm.NodeID]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	scanner, err := newScanner(filename, file)
	if err != nil {
		return nil, nil, err
	}
	defer scanner.Close()

	ways := []rawWay{}
	nodeUse := make(map[osm.NodeID]int)
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		tags := way.TagMap()
		highway := tags["highway"]
		if !drivableHighways[highway] {
			continue
		}
		if len(way.Nodes) < 2 {
			continue
		}
		w := rawWay{
			id:     int64(way.ID),
			class:  highway,
			oneWay: tags["oneway"] == "yes" || tags["oneway"] == "1",
			name:   tags["name"],
		}
		if v, err := strconv.ParseFloat(strings.TrimSuffix(tags["maxspeed"], " km/h"), 64); err == nil {
			w.maxSpeed = v
		}
		if v, err := strconv.ParseInt(tags["lanes"], 10, 32); err == nil {
			w.lanes = int32(v)
		}
		for _, n := range way.Nodes {
			w.nodeIDs = append(w.nodeIDs, n.ID)
			nodeUse[n.ID]++
		}
		// way自身的端点也是切分点
		nodeUse[w.nodeIDs[0]]++
		nodeUse[w.nodeIDs[len(w.nodeIDs)-1]]++
		ways = append(ways, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return ways, nodeUse, nil
}

// scanNodes 第二遍扫描，记录被引用节点的坐标并提取交通控制节点
func scanNodes(filename string, nodeUse map[osm.NodeID]int) (map[osm.NodeID]orb.Point, []ControlNode, []ControlNode, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()
	scanner, err := newScanner(filename, file)
	if err != nil {
		return nil, nil, nil, err
	}
	defer scanner.Close()

	coords := make(map[osm.NodeID]orb.Point, len(nodeUse))
	signals := []ControlNode{}
	stopSigns := []ControlNode{}
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, used := nodeUse[node.ID]; !used {
			continue
		}
		pt := orb.Point{node.Lon, node.Lat}
		coords[node.ID] = pt
		switch node.TagMap()["highway"] {
		case "traffic_signals":
			signals = append(signals, ControlNode{ID: int64(node.ID), Position: pt})
		case "stop":
			stopSigns = append(stopSigns, ControlNode{ID: int64(node.ID), Position: pt})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	return coords, signals, stopSigns, nil
}
