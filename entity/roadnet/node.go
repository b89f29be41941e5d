package roadnet

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
)

// Node 路网节点
// 功能：路段端点的图节点，记录位置、分类与关联边
// 说明：节点在边摄入过程中按需懒创建，本次会话内只增不删
type Node struct {
	id               int64
	position         orb.Point
	kind             entity.NodeKind
	connectedEdgeIDs []int64
	outgoing         []entity.IRoadEdge // 以本节点为起点的有向边
}

func newNode(id int64, position orb.Point) *Node {
	return &Node{
		id:               id,
		position:         position,
		kind:             entity.NodeKindSpawn,
		connectedEdgeIDs: make([]int64, 0, 2),
	}
}

// attachEdge 记录一条关联边
// 说明：构图阶段调用；交叉口判定推迟到全部边摄入完成后统一进行
func (n *Node) attachEdge(e *Edge) {
	n.connectedEdgeIDs = append(n.connectedEdgeIDs, e.id)
	if e.fromID == n.id {
		n.outgoing = append(n.outgoing, e)
	}
}

// ID 获取节点ID
func (n *Node) ID() int64 {
	return n.id
}

// Position 获取节点位置
func (n *Node) Position() orb.Point {
	return n.position
}

// Kind 获取节点分类
func (n *Node) Kind() entity.NodeKind {
	return n.kind
}

// ConnectedEdgeIDs 获取关联的边ID列表
func (n *Node) ConnectedEdgeIDs() []int64 {
	return n.connectedEdgeIDs
}

// OutgoingEdges 获取以本节点为起点的有向边列表
func (n *Node) OutgoingEdges() []entity.IRoadEdge {
	return n.outgoing
}

func (n *Node) String() string {
	return fmt.Sprintf("Node{id=%d, kind=%v, edges=%d}", n.id, n.kind, len(n.connectedEdgeIDs))
}
