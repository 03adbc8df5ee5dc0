package domain

import (
	"fmt"
	"time"
)

// Comment - узел дерева комментариев. Дети не вложены, а находятся по ParentID.
type Comment struct {
	ID        string    `json:"_id"`
	ParentID  string    `json:"parentId,omitempty"`
	PostID    string    `json:"postId,omitempty"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentNode - комментарий с глубиной вложенности, результат обхода дерева.
type CommentNode struct {
	Comment
	Depth int `json:"depth"`
}

// CommentTree хранит комментарии плоской картой по id и списками детей в порядке поступления.
// Не потокобезопасно.
type CommentTree struct {
	nodes    map[string]Comment
	parents  map[string]string   // фактический родитель узла, "" - корень
	children map[string][]string // "" - корневой уровень
}

// NewCommentTree строит дерево из плоского списка. Комментарии, чей родитель
// отсутствует в списке или образует цикл, поднимаются на корневой уровень.
func NewCommentTree(comments []Comment) *CommentTree {
	t := &CommentTree{
		nodes:    make(map[string]Comment, len(comments)),
		parents:  make(map[string]string, len(comments)),
		children: make(map[string][]string),
	}
	order := make([]string, 0, len(comments))
	for _, c := range comments {
		if c.ID == "" {
			continue
		}
		if _, exists := t.nodes[c.ID]; exists {
			continue
		}
		t.nodes[c.ID] = c
		order = append(order, c.ID)
	}
	for _, id := range order {
		parent := t.nodes[id].ParentID
		if _, ok := t.nodes[parent]; !ok || t.cyclic(id) {
			parent = ""
		}
		t.parents[id] = parent
		t.children[parent] = append(t.children[parent], id)
	}
	return t
}

// cyclic проверяет, возвращается ли цепочка ParentID к самому узлу.
func (t *CommentTree) cyclic(id string) bool {
	visited := map[string]struct{}{}
	cur := t.nodes[id].ParentID
	for cur != "" {
		if cur == id {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}
		next, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = next.ParentID
	}
	return false
}

// Len возвращает количество комментариев в дереве.
func (t *CommentTree) Len() int {
	return len(t.nodes)
}

// Get возвращает комментарий по id.
func (t *CommentTree) Get(id string) (Comment, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Add добавляет ответ (или корневой комментарий, если ParentID пуст).
func (t *CommentTree) Add(c Comment) error {
	if c.ID == "" {
		return fmt.Errorf("comment id is empty")
	}
	if _, exists := t.nodes[c.ID]; exists {
		return fmt.Errorf("comment %s already exists", c.ID)
	}
	if c.ParentID != "" {
		if _, ok := t.nodes[c.ParentID]; !ok {
			return fmt.Errorf("parent %s: %w", c.ParentID, ErrCommentNotFound)
		}
	}
	t.nodes[c.ID] = c
	t.parents[c.ID] = c.ParentID
	t.children[c.ParentID] = append(t.children[c.ParentID], c.ID)
	return nil
}

// Remove удаляет комментарий вместе со всеми ответами на него.
// Возвращает количество удаленных узлов.
func (t *CommentTree) Remove(id string) (int, error) {
	if _, ok := t.nodes[id]; !ok {
		return 0, fmt.Errorf("comment %s: %w", id, ErrCommentNotFound)
	}

	parent := t.parents[id]
	siblings := t.children[parent]
	for i, sid := range siblings {
		if sid == id {
			t.children[parent] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(t.children[parent]) == 0 {
		delete(t.children, parent)
	}

	removed := 0
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.children[cur]...)
		delete(t.children, cur)
		delete(t.parents, cur)
		delete(t.nodes, cur)
		removed++
	}
	return removed, nil
}

// Children возвращает прямых потомков в порядке поступления.
func (t *CommentTree) Children(id string) []Comment {
	ids := t.children[id]
	out := make([]Comment, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Flatten обходит дерево в глубину и возвращает узлы с глубиной.
func (t *CommentTree) Flatten() []CommentNode {
	out := make([]CommentNode, 0, len(t.nodes))
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, id := range t.children[parent] {
			out = append(out, CommentNode{Comment: t.nodes[id], Depth: depth})
			walk(id, depth+1)
		}
	}
	walk("", 0)
	return out
}
