// Package models содержит доменные сущности webthreads.
package models

import "time"

// User — снимок автора на момент публикации (не внешний ключ).
// Email — ключ идентичности: по нему проверяется авторство и учитываются реакции.
type User struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Picture string `json:"picture" bson:"picture"`
}

// Reactions — счётчики и множества реакций одного узла (комментария или ответа).
// Инварианты:
//   - email встречается не более чем в одном из {LikedBy, DislikedBy}
//     и не более чем в одном из {TrustedBy, DistrustedBy};
//   - каждый счётчик равен длине соответствующего множества.
type Reactions struct {
	Likes        int      `json:"likes" bson:"likes"`
	Dislikes     int      `json:"dislikes" bson:"dislikes"`
	Trusts       int      `json:"trusts" bson:"trusts"`
	Distrusts    int      `json:"distrusts" bson:"distrusts"`
	LikedBy      []string `json:"likedBy" bson:"liked_by"`
	DislikedBy   []string `json:"dislikedBy" bson:"disliked_by"`
	TrustedBy    []string `json:"trustedBy" bson:"trusted_by"`
	DistrustedBy []string `json:"distrustedBy" bson:"distrusted_by"`
}

// Reply — ответ на комментарий или на другой ответ; глубина не ограничена.
type Reply struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	User      User      `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
	Reactions `bson:",inline"`
	Replies   []Reply `json:"replies" bson:"replies"`
}

// Comment — корневой комментарий страницы; владеет деревом ответов.
// Version — номер ревизии документа для условной записи в хранилище, наружу не отдаётся.
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	URL       string    `json:"url" bson:"url"`
	Text      string    `json:"text" bson:"text"`
	User      User      `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
	Reactions `bson:",inline"`
	Replies   []Reply `json:"replies" bson:"replies"`
	Version   int64   `json:"-" bson:"version"`
}

// Clone возвращает глубокую копию множеств реакций.
func (r Reactions) Clone() Reactions {
	r.LikedBy = cloneStrings(r.LikedBy)
	r.DislikedBy = cloneStrings(r.DislikedBy)
	r.TrustedBy = cloneStrings(r.TrustedBy)
	r.DistrustedBy = cloneStrings(r.DistrustedBy)
	return r
}

// Normalize заменяет nil-множества пустыми, чтобы в JSON уходили [] вместо null.
func (r *Reactions) Normalize() {
	if r.LikedBy == nil {
		r.LikedBy = []string{}
	}
	if r.DislikedBy == nil {
		r.DislikedBy = []string{}
	}
	if r.TrustedBy == nil {
		r.TrustedBy = []string{}
	}
	if r.DistrustedBy == nil {
		r.DistrustedBy = []string{}
	}
}

// Clone возвращает глубокую копию ответа вместе со всем поддеревом.
func (r Reply) Clone() Reply {
	r.Reactions = r.Reactions.Clone()
	r.Replies = cloneReplies(r.Replies)
	return r
}

// Normalize рекурсивно нормализует ответ и его поддерево.
func (r *Reply) Normalize() {
	r.Reactions.Normalize()
	if r.Replies == nil {
		r.Replies = []Reply{}
	}
	for i := range r.Replies {
		r.Replies[i].Normalize()
	}
}

// Clone возвращает глубокую копию комментария вместе со всем деревом ответов.
func (c Comment) Clone() Comment {
	c.Reactions = c.Reactions.Clone()
	c.Replies = cloneReplies(c.Replies)
	return c
}

// Normalize рекурсивно нормализует комментарий и дерево ответов.
func (c *Comment) Normalize() {
	c.Reactions.Normalize()
	if c.Replies == nil {
		c.Replies = []Reply{}
	}
	for i := range c.Replies {
		c.Replies[i].Normalize()
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneReplies(in []Reply) []Reply {
	if in == nil {
		return nil
	}

	out := make([]Reply, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
