package input

import (
	"context"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Lemirq/qhacks-sub000/utils/config"
)

// Segment 原始路段
// 功能：构图前的原始路段数据，来源可以是OSM文件或MongoDB路段集合
// 说明：双向路段由路网构建阶段展开为两条方向相反的有向边
type Segment struct {
	ID       int64          `bson:"id"`       // 路段ID
	FromID   int64          `bson:"from"`     // 起点节点ID
	ToID     int64          `bson:"to"`       // 终点节点ID
	Geometry orb.LineString `bson:"-"`        // 折线几何（>=2个点）
	Class    string         `bson:"class"`    // 道路分类（primary/secondary/...）
	MaxSpeed float64        `bson:"maxspeed"` // 限速（千米/时，0表示未标注）
	Lanes    int32          `bson:"lanes"`    // 车道数（0表示未标注）
	OneWay   bool           `bson:"oneway"`   // 是否单向
	Name     string         `bson:"name"`     // 道路名

	RawGeometry [][]float64 `bson:"geometry"` // BSON几何（[lon,lat]序列）
}

// Destination 原始目的地
type Destination struct {
	ID       int64   `bson:"id"`       // 目的地ID
	Name     string  `bson:"name"`     // 名称
	Lon      float64 `bson:"lon"`      // 经度
	Lat      float64 `bson:"lat"`      // 纬度
	Category string  `bson:"category"` // 分类（building/parking_lot/exit）
	Weight   float64 `bson:"weight"`   // 抽样权重
	Capacity int32   `bson:"capacity"` // 容量（0表示不限）
}

// SpawnPoint 原始生成点
type SpawnPoint struct {
	ID        string  `bson:"id"`        // 生成点ID
	Lon       float64 `bson:"lon"`       // 经度
	Lat       float64 `bson:"lat"`       // 纬度
	Rate      float64 `bson:"rate"`      // 生成速率（辆/分钟）
	Direction string  `bson:"direction"` // 方向标签（可选）
}

// ControlNode 原始交通控制点（信号灯或停车标志）
type ControlNode struct {
	ID       int64     // 节点ID
	Position orb.Point // 位置
}

// Input 输入数据
// 功能：存储仿真所需的所有输入数据
// 说明：路网来自OSM文件或MongoDB，目的地与生成点来自GeoJSON覆盖文件或
// MongoDB；缺失的可选数据退化为空列表，不阻断启动
type Input struct {
	Segments     []Segment
	Destinations []Destination
	SpawnPoints  []SpawnPoint
	Signals      []ControlNode
	StopSigns    []ControlNode
}

// Init 加载数据
// 功能：根据配置初始化并加载所有输入数据
// 参数：config-配置对象
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 路网：文件路径优先（.osm/.xml/.pbf由扩展名区分），否则从MongoDB加载
// 2. 交通控制点：从OSM节点标签提取（highway=stop/traffic_signals）
// 3. 目的地：GeoJSON覆盖文件优先，否则MongoDB，再否则为空
// 4. 生成点：同目的地
// 说明：这是数据加载的主入口；除路网为空外所有缺失数据都按部分数据优雅降级
func Init(c config.Config) (res *Input) {
	res = &Input{}

	var client *mongo.Client
	if c.Input.URI != "" {
		client = mongoutil.NewClient(c.Input.URI)
		defer client.Disconnect(context.Background())
	}

	// 路网
	if c.Input.Map.File != "" {
		segments, signals, stopSigns, err := readOSM(c.Input.Map.File)
		if err != nil {
			log.Panicf("failed to load map from file: %v", err)
		}
		res.Segments = segments
		res.Signals = signals
		res.StopSigns = stopSigns
	} else if client != nil {
		res.Segments = mustLoad[Segment](client, c.Input.Map)
		for i := range res.Segments {
			seg := &res.Segments[i]
			seg.Geometry = make(orb.LineString, 0, len(seg.RawGeometry))
			for _, pt := range seg.RawGeometry {
				if len(pt) >= 2 {
					seg.Geometry = append(seg.Geometry, orb.Point{pt[0], pt[1]})
				}
			}
		}
	} else {
		log.Panic("map source must be specified (file or mongodb)")
	}

	// 目的地
	if c.Input.Destinations != nil {
		if c.Input.Destinations.File != "" {
			dests, err := readDestinationsGeoJSON(c.Input.Destinations.File)
			if err != nil {
				log.Panicf("failed to load destinations: %v", err)
			}
			res.Destinations = dests
		} else if client != nil {
			res.Destinations = mustLoad[Destination](client, *c.Input.Destinations)
		}
	}

	// 生成点
	if c.Input.SpawnPoints != nil {
		if c.Input.SpawnPoints.File != "" {
			sps, err := readSpawnPointsGeoJSON(c.Input.SpawnPoints.File)
			if err != nil {
				log.Panicf("failed to load spawn points: %v", err)
			}
			res.SpawnPoints = sps
		} else if client != nil {
			res.SpawnPoints = mustLoad[SpawnPoint](client, *c.Input.SpawnPoints)
		}
	}

	log.Infof("input: %d segments, %d destinations, %d spawn points, %d signals, %d stop signs",
		len(res.Segments), len(res.Destinations), len(res.SpawnPoints),
		len(res.Signals), len(res.StopSigns))
	return
}

// mustLoad 必须加载数据（泛型函数）
// 功能：从MongoDB集合中加载全部文档
// 参数：client-MongoDB客户端，inputPath-输入路径配置
// 返回：加载的文档列表
// 说明：提供统一的数据加载接口，加载失败直接panic
func mustLoad[T any](client *mongo.Client, inputPath config.InputPath) []T {
	coll := mongoutil.GetMongoColl(client, inputPath)
	log.Infof("start fetching from %s.%s", inputPath.DB, inputPath.Col)
	cursor, err := coll.Find(context.Background(), map[string]any{})
	if err != nil {
		log.Panicf("failed to fetch from %s.%s: %v", inputPath.DB, inputPath.Col, err)
	}
	var res []T
	if err := cursor.All(context.Background(), &res); err != nil {
		log.Panicf("failed to decode %s.%s: %v", inputPath.DB, inputPath.Col, err)
	}
	log.Infof("finish fetching from %s.%s", inputPath.DB, inputPath.Col)
	return res
}
