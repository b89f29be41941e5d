// 路径规划模块，提供路网有向图上的A*搜索
package route

import (
	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/container"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

const directRouteSpeed = 30 // 退化直连路线的估时速度（千米/时）

// Router 路径规划器
// 功能：路网有向图上的A*搜索，每次调用无共享可变状态，可并发使用
type Router struct {
	roadNet entity.IRoadNetManager
}

// New 创建路径规划器
// 参数：roadNet-路网管理器
// 返回：路径规划器实例
func New(roadNet entity.IRoadNetManager) *Router {
	return &Router{roadNet: roadNet}
}

// record 单个节点的搜索记录
type record struct {
	gCost      float64          // 起点到本节点的实际代价（米）
	hCost      float64          // 本节点到终点的启发代价（米）
	fCost      float64          // g+h
	parentNode int64            // 前驱节点ID
	parentEdge entity.IRoadEdge // 进入本节点经过的边
	closed     bool             // 是否已扩展
}

// FindRoute 路径规划
// 功能：把起终点吸附到最近的图节点后做A*搜索
// 参数：start,end-起终点坐标，blocked-被封闭的边ID集合（松弛时跳过，可为nil）
// 返回：规划好的路线；无可行路径或路网为空时返回nil（从不抛错，
// 调用方按"跳过本次生成"或"随机单边兜底"降级处理）
// 算法说明：
// 1. 起终点吸附到同一节点时返回两点直连的退化路线
// 2. 启发函数为到终点的大圆距离（边长>=直线距离，保证可采纳）
// 3. 开集为(fCost, 节点ID)二元排序的优先队列：同代价时取节点ID最小者，
//    对固定的图与封闭集保证路径选择确定性
// 4. 松弛时跳过封闭边与已扩展节点
func (r *Router) FindRoute(start, end orb.Point, blocked map[int64]bool) *entity.Route {
	startNode := r.roadNet.FindNearestNode(start)
	endNode := r.roadNet.FindNearestNode(end)
	if startNode == nil || endNode == nil {
		// 空路网，无法路由
		return nil
	}
	if startNode.ID() == endNode.ID() {
		// 起终点吸附到同一节点，退化为两点直连
		dist := geomath.Distance(start, end)
		return &entity.Route{
			NodeIDs:       []int64{},
			Edges:         []entity.IRoadEdge{},
			Distance:      dist,
			EstimatedTime: dist / (directRouteSpeed / 3.6),
			Waypoints:     orb.LineString{start, end},
		}
	}

	goalPos := endNode.Position()
	records := map[int64]*record{
		startNode.ID(): {hCost: geomath.Distance(startNode.Position(), goalPos)},
	}
	records[startNode.ID()].fCost = records[startNode.ID()].hCost

	open := container.NewPriorityQueue[int64]()
	open.HeapPush(startNode.ID(), records[startNode.ID()].fCost, startNode.ID())

	for open.Len() > 0 {
		currentID, _ := open.HeapPop()
		current := records[currentID]
		if current.closed {
			// 曾以更差的代价重复入队
			continue
		}
		if currentID == endNode.ID() {
			return r.buildRoute(startNode.ID(), endNode.ID(), records)
		}
		current.closed = true

		node, err := r.roadNet.GetNodeOrError(currentID)
		if err != nil {
			log.Errorf("astar: %v", err)
			continue
		}
		for _, e := range node.OutgoingEdges() {
			if blocked[e.ID()] {
				continue
			}
			neighborID := e.ToID()
			if rec, ok := records[neighborID]; ok && rec.closed {
				continue
			}
			g := current.gCost + e.Length()
			rec, ok := records[neighborID]
			if !ok {
				rec = &record{
					hCost: geomath.Distance(r.roadNet.GetNode(neighborID).Position(), goalPos),
				}
				records[neighborID] = rec
			} else if g >= rec.gCost {
				continue
			}
			rec.gCost = g
			rec.fCost = g + rec.hCost
			rec.parentNode = currentID
			rec.parentEdge = e
			open.HeapPush(neighborID, rec.fCost, neighborID)
		}
	}
	// 无可行路径
	return nil
}

// buildRoute 从搜索记录回溯构建路线
// 算法说明：
// 1. 从终点沿parent链回溯得到节点与边序列
// 2. 距离为各边长度之和，估时为各边长度/限速之和
// 3. 航点折线由各边几何顺序拼接，相邻边的重合连接点去重
func (r *Router) buildRoute(startID, endID int64, records map[int64]*record) *entity.Route {
	nodeIDs := []int64{endID}
	edges := []entity.IRoadEdge{}
	for id := endID; id != startID; {
		rec := records[id]
		edges = append(edges, rec.parentEdge)
		id = rec.parentNode
		nodeIDs = append(nodeIDs, id)
	}
	// 反转为起点到终点的顺序
	for i, j := 0, len(nodeIDs)-1; i < j; i, j = i+1, j-1 {
		nodeIDs[i], nodeIDs[j] = nodeIDs[j], nodeIDs[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	route := &entity.Route{
		NodeIDs: nodeIDs,
		Edges:   edges,
	}
	waypoints := orb.LineString{}
	for _, e := range edges {
		route.Distance += e.Length()
		route.EstimatedTime += e.Length() / (e.MaxSpeed() / 3.6)
		for _, pt := range e.Geometry() {
			if len(waypoints) > 0 && waypoints[len(waypoints)-1] == pt {
				continue
			}
			waypoints = append(waypoints, pt)
		}
	}
	route.Waypoints = waypoints
	return route
}
