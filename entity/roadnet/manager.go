package roadnet

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
	"github.com/Lemirq/qhacks-sub000/utils/input"
	"github.com/Lemirq/qhacks-sub000/utils/randengine"
)

// 按道路分类的默认限速（千米/时），路段未标注限速时使用
var defaultSpeedByClass = map[string]float64{
	"motorway":    80,
	"trunk":       70,
	"primary":     60,
	"secondary":   50,
	"tertiary":    40,
	"residential": 30,
}

const otherClassSpeed = 40 // 其余分类的默认限速（千米/时）

// Manager 路网管理器
// 功能：从原始路段构建有向图并提供查询服务
// 说明：构图阶段只增不删，构图完成后整张图冻结为只读，
// 多个行为评估协程可以无锁并发查询
type Manager struct {
	ctx entity.ITaskContext

	nodes map[int64]*Node
	edges map[int64]*Edge
	// 确定性迭代顺序（摄入顺序）
	nodeList []*Node
	edgeList []entity.IRoadEdge

	destinations []entity.IDestination
	totalWeight  float64

	generator *randengine.Engine
}

// NewManager 创建路网管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的路网管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:          ctx,
		nodes:        make(map[int64]*Node),
		edges:        make(map[int64]*Edge),
		nodeList:     make([]*Node, 0),
		edgeList:     make([]entity.IRoadEdge, 0),
		destinations: make([]entity.IDestination, 0),
		generator:    randengine.New(ctx.RuntimeConfig().C.Seed + 1),
	}
}

// Init 构建路网
// 功能：摄入原始路段与目的地，构建有向图
// 参数：segments-原始路段列表，destinations-原始目的地列表
// 算法说明：
// 1. 逐路段摄入：未标注限速时按道路分类取默认值；端点节点懒创建，
//    新节点的connectedEdges以本边初始化，已有节点追加边
// 2. 双向路段额外产生一条几何取逆、起终点互换的边
// 3. 全部边摄入完成后重新判定节点分类：关联边数>=3的节点为交叉口
// 4. 目的地就近吸附：把距离目的地最近的节点标记为目的地/停车场分类
func (m *Manager) Init(segments []input.Segment, destinations []input.Destination) {
	for _, seg := range segments {
		if len(seg.Geometry) < 2 {
			log.Warnf("segment %d has degenerate geometry, skip", seg.ID)
			continue
		}
		maxSpeed := seg.MaxSpeed
		if maxSpeed <= 0 {
			var ok bool
			if maxSpeed, ok = defaultSpeedByClass[seg.Class]; !ok {
				maxSpeed = otherClassSpeed
			}
		}
		lanes := seg.Lanes
		if lanes <= 0 {
			lanes = 1
		}
		m.addEdge(newEdge(seg.ID, seg.FromID, seg.ToID, seg.Geometry, maxSpeed, lanes, seg.OneWay, seg.Name))
		if !seg.OneWay {
			// 双向路段的反向边，边ID取负保证唯一
			m.addEdge(newEdge(-seg.ID, seg.ToID, seg.FromID, reverseGeometry(seg.Geometry), maxSpeed, lanes, false, seg.Name))
		}
	}

	// 交叉口判定
	for _, n := range m.nodeList {
		if len(n.connectedEdgeIDs) >= 3 {
			n.kind = entity.NodeKindIntersection
		}
	}

	// 目的地
	for _, d := range destinations {
		dest := newDestination(d.ID, d.Name, orb.Point{d.Lon, d.Lat}, parseCategory(d.Category), d.Capacity, d.Weight)
		m.destinations = append(m.destinations, dest)
		m.totalWeight += dest.Weight()
		if n := m.findNearestNodeImpl(dest.Position()); n != nil && n.kind == entity.NodeKindSpawn {
			if dest.Category() == entity.DestinationParkingLot {
				n.kind = entity.NodeKindParking
			} else {
				n.kind = entity.NodeKindDestination
			}
		}
	}

	log.Infof("road network: %d nodes, %d edges, %d destinations",
		len(m.nodeList), len(m.edgeList), len(m.destinations))
}

// addEdge 摄入一条有向边，端点节点懒创建
func (m *Manager) addEdge(e *Edge) {
	if _, ok := m.edges[e.id]; ok {
		log.Panicf("duplicated edge id %d", e.id)
	}
	m.edges[e.id] = e
	m.edgeList = append(m.edgeList, e)
	geom := e.Geometry()
	m.getOrCreateNode(e.fromID, geom[0]).attachEdge(e)
	m.getOrCreateNode(e.toID, geom[len(geom)-1]).attachEdge(e)
}

func (m *Manager) getOrCreateNode(id int64, position orb.Point) *Node {
	if n, ok := m.nodes[id]; ok {
		return n
	}
	n := newNode(id, position)
	m.nodes[id] = n
	m.nodeList = append(m.nodeList, n)
	return n
}

// GetNode 根据ID获取节点，不存在则panic
func (m *Manager) GetNode(id int64) entity.IRoadNode {
	if n, ok := m.nodes[id]; !ok {
		log.Panicf("no id %d in node data", id)
		return nil
	} else {
		return n
	}
}

// GetNodeOrError 根据ID获取节点（带错误处理）
func (m *Manager) GetNodeOrError(id int64) (entity.IRoadNode, error) {
	if n, ok := m.nodes[id]; !ok {
		return nil, fmt.Errorf("no id %d in node data", id)
	} else {
		return n, nil
	}
}

// GetEdge 根据ID获取边，不存在则panic
func (m *Manager) GetEdge(id int64) entity.IRoadEdge {
	if e, ok := m.edges[id]; !ok {
		log.Panicf("no id %d in edge data", id)
		return nil
	} else {
		return e
	}
}

// GetEdgeOrError 根据ID获取边（带错误处理）
func (m *Manager) GetEdgeOrError(id int64) (entity.IRoadEdge, error) {
	if e, ok := m.edges[id]; !ok {
		return nil, fmt.Errorf("no id %d in edge data", id)
	} else {
		return e, nil
	}
}

// NodeCount 获取节点总数
func (m *Manager) NodeCount() int {
	return len(m.nodeList)
}

// EdgeCount 获取边总数
func (m *Manager) EdgeCount() int {
	return len(m.edgeList)
}

// Edges 获取全部边（摄入顺序）
func (m *Manager) Edges() []entity.IRoadEdge {
	return m.edgeList
}

// Destinations 获取全部目的地
func (m *Manager) Destinations() []entity.IDestination {
	return m.destinations
}

// FindNearestNode 查找距指定位置最近的节点
// 功能：对全部节点做大圆距离线性扫描
// 参数：pos-目标位置
// 返回：最近节点；空路网返回nil，所有依赖方按"无法路由"处理不得报错
func (m *Manager) FindNearestNode(pos orb.Point) entity.IRoadNode {
	if n := m.findNearestNodeImpl(pos); n != nil {
		return n
	}
	return nil
}

func (m *Manager) findNearestNodeImpl(pos orb.Point) *Node {
	var best *Node
	bestDist := math.Inf(1)
	for _, n := range m.nodeList {
		if d := geomath.Distance(pos, n.position); d < bestDist {
			bestDist = d
			best = n
		}
	}
	return best
}

// FindEdgesNearPosition 查找指定半径内的边
// 功能：返回到点最小距离不超过radius的边，按距离升序排序
// 参数：pos-目标位置，radius-半径（米）
// 返回：边列表（可能为空）
func (m *Manager) FindEdgesNearPosition(pos orb.Point, radius float64) []entity.IRoadEdge {
	type edgeDist struct {
		edge entity.IRoadEdge
		dist float64
	}
	found := make([]edgeDist, 0)
	for _, e := range m.edgeList {
		if d := e.DistanceToPoint(pos); d <= radius {
			found = append(found, edgeDist{edge: e, dist: d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].dist < found[j].dist
	})
	res := make([]entity.IRoadEdge, len(found))
	for i, f := range found {
		res[i] = f.edge
	}
	return res
}

// RandomDestination 加权随机抽取目的地
// 功能：按权重比例随机选择目的地
// 返回：目的地；没有目的地时返回nil
// 算法说明：
// 1. 在[0, 总权重)内取均匀随机数r
// 2. 按迭代顺序依次减去各目的地的权重，r<=0时选中
// 3. 浮点边界情况下回退到第一个目的地，保证终止
// 说明：单个目的地时也有定义（必然选中）
func (m *Manager) RandomDestination() entity.IDestination {
	if len(m.destinations) == 0 {
		return nil
	}
	r := m.generator.Float64Safe() * m.totalWeight
	for _, d := range m.destinations {
		r -= d.Weight()
		if r <= 0 {
			return d
		}
	}
	return m.destinations[0]
}

// RandomEdge 随机抽取一条边
// 功能：路由失败时的兜底放置用
// 返回：随机边；空路网返回nil
func (m *Manager) RandomEdge() entity.IRoadEdge {
	if len(m.edgeList) == 0 {
		return nil
	}
	return m.edgeList[m.generator.IntnSafe(len(m.edgeList))]
}
