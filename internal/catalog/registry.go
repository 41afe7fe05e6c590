// Package catalog содержит статический справочник категорий заявок.
package catalog

// Category категория заявки.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Registry неизменяемый справочник категорий.
type Registry struct {
	ordered []Category
	byID    map[string]Category
}

// NewRegistry строит справочник. Повторяющийся id считается ошибкой программиста и вызывает panic.
func NewRegistry(categories []Category) *Registry {
	r := &Registry{
		ordered: make([]Category, len(categories)),
		byID:    make(map[string]Category, len(categories)),
	}
	copy(r.ordered, categories)
	for _, c := range categories {
		if _, dup := r.byID[c.ID]; dup {
			panic("catalog: повторяющийся id категории " + c.ID)
		}
		r.byID[c.ID] = c
	}
	return r
}

// Default справочник, загружаемый при старте.
var Default = NewRegistry([]Category{
	{ID: "beverage", Name: "Boissons", Icon: "bi-cup-straw"},
	{ID: "autopart", Name: "Pièces Auto", Icon: "bi-gear"},
	{ID: "electronics", Name: "Électronique", Icon: "bi-phone"},
	{ID: "food", Name: "Alimentation", Icon: "bi-basket"},
	{ID: "clothing", Name: "Vêtements", Icon: "bi-bag"},
	{ID: "pharmacy", Name: "Pharmacie", Icon: "bi-heart-pulse"},
	{ID: "tools", Name: "Outils", Icon: "bi-tools"},
	{ID: "cosmetics", Name: "Cosmétiques", Icon: "bi-palette"},
	{ID: "books", Name: "Livres", Icon: "bi-book"},
	{ID: "other", Name: "Autre", Icon: "bi-three-dots"},
})

// All возвращает копию списка категорий в исходном порядке.
func (r *Registry) All() []Category {
	out := make([]Category, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get ищет категорию по id.
func (r *Registry) Get(id string) (Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Has сообщает, есть ли категория с таким id.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// DisplayName возвращает название категории или сам id, если категория неизвестна.
func (r *Registry) DisplayName(id string) string {
	if c, ok := r.byID[id]; ok {
		return c.Name
	}
	return id
}
