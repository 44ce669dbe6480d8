// Package reaction реализует переключатель реакций узла: like/dislike и trust/distrust.
//
// Оси независимы друг от друга; внутри оси действия взаимоисключающие.
// Для одного пользователя на одной оси возможны три состояния: нет реакции,
// действие A, действие B. Повторное действие снимает реакцию, противоположное
// действие переключает её.
package reaction

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pribylovaa/webthreads/internal/models"
)

// ErrInvalidAction — неизвестный тип реакции (ошибка вызывающего кода).
var ErrInvalidAction = errors.New("invalid reaction type")

// Action — тип реакции.
type Action string

const (
	Like     Action = "like"
	Dislike  Action = "dislike"
	Trust    Action = "trust"
	Distrust Action = "distrust"
)

// Axis — пара взаимоисключающих действий.
type Axis int

const (
	AxisApproval Axis = iota + 1 // like/dislike
	AxisTrust                    // trust/distrust
)

// ParseAction разбирает тип реакции из транспортного представления.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}

	return a, nil
}

// Valid сообщает, известно ли действие.
func (a Action) Valid() bool {
	switch a {
	case Like, Dislike, Trust, Distrust:
		return true
	default:
		return false
	}
}

// Axis возвращает ось действия (0 для неизвестного действия).
func (a Action) Axis() Axis {
	switch a {
	case Like, Dislike:
		return AxisApproval
	case Trust, Distrust:
		return AxisTrust
	default:
		return 0
	}
}

// Opposite возвращает противоположное действие на той же оси.
func (a Action) Opposite() Action {
	switch a {
	case Like:
		return Dislike
	case Dislike:
		return Like
	case Trust:
		return Distrust
	case Distrust:
		return Trust
	default:
		return ""
	}
}

// slot — счётчик и множество одного действия внутри Reactions.
type slot struct {
	count *int
	by    *[]string
}

func slotOf(r *models.Reactions, a Action) slot {
	switch a {
	case Like:
		return slot{&r.Likes, &r.LikedBy}
	case Dislike:
		return slot{&r.Dislikes, &r.DislikedBy}
	case Trust:
		return slot{&r.Trusts, &r.TrustedBy}
	default:
		return slot{&r.Distrusts, &r.DistrustedBy}
	}
}

func (s slot) has(email string) bool {
	return slices.Contains(*s.by, email)
}

func (s slot) add(email string) {
	*s.by = append(*s.by, email)
	*s.count = len(*s.by)
}

func (s slot) remove(email string) {
	*s.by = slices.DeleteFunc(*s.by, func(e string) bool { return e == email })
	*s.count = len(*s.by)
}

// Apply применяет действие пользователя email к реакциям узла:
//  1. email уже в множестве действия — реакция снимается;
//  2. иначе email добавляется в множество действия;
//  3. и, если email был в множестве противоположного действия, удаляется оттуда.
//
// Меняются только поля оси действия; вторая ось не затрагивается.
func Apply(r *models.Reactions, a Action, email string) error {
	if r == nil {
		return fmt.Errorf("%w: nil reactions", ErrInvalidAction)
	}

	if !a.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, a)
	}

	r.Normalize()

	target := slotOf(r, a)
	if target.has(email) {
		target.remove(email)
		return nil
	}

	target.add(email)

	if opposite := slotOf(r, a.Opposite()); opposite.has(email) {
		opposite.remove(email)
	}

	return nil
}

// State возвращает текущее действие email на оси axis ("" — реакции нет).
func State(r models.Reactions, axis Axis, email string) Action {
	var a, b Action
	switch axis {
	case AxisApproval:
		a, b = Like, Dislike
	case AxisTrust:
		a, b = Trust, Distrust
	default:
		return ""
	}

	switch {
	case slotOf(&r, a).has(email):
		return a
	case slotOf(&r, b).has(email):
		return b
	default:
		return ""
	}
}
