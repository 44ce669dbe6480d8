// Package replytree адресует ответы в дереве по идентификатору на любой глубине.
//
// Обход — поиск в глубину, pre-order. Операции меняют дерево на месте,
// сохраняя порядок соседей и не трогая несвязанные поддеревья.
package replytree

import (
	"errors"
	"slices"

	"github.com/pribylovaa/webthreads/internal/models"
)

// ErrNotFound — идентификатор не найден ни на одном уровне дерева.
var ErrNotFound = errors.New("reply not found")

// RootID — родитель-«корень»: ответ адресован самому комментарию.
const RootID = ""

// Find ищет узел id в replies и возвращает указатель на него.
// Указатель действителен до следующего изменения среза, в котором лежит узел.
func Find(replies []models.Reply, id string) (*models.Reply, bool) {
	for i := range replies {
		if replies[i].ID == id {
			return &replies[i], true
		}

		if found, ok := Find(replies[i].Replies, id); ok {
			return found, true
		}
	}

	return nil, false
}

// Update находит узел id и применяет к нему mutate.
// Ошибка mutate возвращается как есть.
func Update(replies []models.Reply, id string, mutate func(*models.Reply) error) error {
	node, ok := Find(replies, id)
	if !ok {
		return ErrNotFound
	}

	return mutate(node)
}

// InsertChild добавляет reply в конец детей узла parentID.
// parentID == RootID — добавление в сам replies.
func InsertChild(replies *[]models.Reply, parentID string, reply models.Reply) error {
	if parentID == RootID {
		*replies = append(*replies, reply)
		return nil
	}

	parent, ok := Find(*replies, parentID)
	if !ok {
		return ErrNotFound
	}

	parent.Replies = append(parent.Replies, reply)
	return nil
}

// Remove отсоединяет узел id вместе со всем поддеревом и возвращает его.
func Remove(replies *[]models.Reply, id string) (models.Reply, error) {
	for i := range *replies {
		if (*replies)[i].ID == id {
			removed := (*replies)[i]
			*replies = slices.Delete(*replies, i, i+1)
			return removed, nil
		}

		if removed, err := Remove(&(*replies)[i].Replies, id); err == nil {
			return removed, nil
		}
	}

	return models.Reply{}, ErrNotFound
}

// Walk обходит дерево в pre-order и передаёт visit каждый узел с его глубиной
// (прямые ответы комментария имеют глубину 1). Обход прекращается, если visit вернул false.
func Walk(replies []models.Reply, visit func(r *models.Reply, depth int) bool) {
	walk(replies, 1, visit)
}

func walk(replies []models.Reply, depth int, visit func(*models.Reply, int) bool) bool {
	for i := range replies {
		if !visit(&replies[i], depth) {
			return false
		}

		if !walk(replies[i].Replies, depth+1, visit) {
			return false
		}
	}

	return true
}

// Count возвращает число узлов в дереве.
func Count(replies []models.Reply) int {
	n := 0
	Walk(replies, func(*models.Reply, int) bool {
		n++
		return true
	})
	return n
}
