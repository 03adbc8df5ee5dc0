package constants

// EnvelopeKind - форма, в которой эндпоинт маркетплейса отдает список.
type EnvelopeKind string

const (
	// {data: [...], pagination: {total, page, limit}}
	EnvelopeCanonical EnvelopeKind = "canonical"
	// {data|objects: [...], total, page, per_page|limit}
	EnvelopeFlat EnvelopeKind = "flat"
	// [...] без метаданных: пагинация считается локально
	EnvelopeArray EnvelopeKind = "array"
)

// Resource - именованный списочный эндпоинт маркетплейса.
type Resource struct {
	Name     string
	Path     string
	Envelope EnvelopeKind
}

const (
	ResourceProperties = "properties"
	ResourcePosts      = "posts"
	ResourceAds        = "ads"
	ResourceCompanies  = "companies"
	ResourceTickets    = "tickets"
	ResourceUsers      = "users"
	ResourceFavorites  = "favorites"
)

var resources = map[string]Resource{
	ResourceProperties: {Name: ResourceProperties, Path: "/properties", Envelope: EnvelopeCanonical},
	ResourcePosts:      {Name: ResourcePosts, Path: "/posts", Envelope: EnvelopeCanonical},
	ResourceAds:        {Name: ResourceAds, Path: "/ads", Envelope: EnvelopeFlat},
	ResourceCompanies:  {Name: ResourceCompanies, Path: "/companies", Envelope: EnvelopeCanonical},
	ResourceTickets:    {Name: ResourceTickets, Path: "/tickets", Envelope: EnvelopeFlat},
	ResourceUsers:      {Name: ResourceUsers, Path: "/users", Envelope: EnvelopeCanonical},
	ResourceFavorites:  {Name: ResourceFavorites, Path: "/favorites", Envelope: EnvelopeArray},
}

// CommentsPath - шаблон пути комментариев поста.
const CommentsPath = "/posts/%s/comments"

// LookupResource ищет ресурс в каталоге по имени.
func LookupResource(name string) (Resource, bool) {
	r, ok := resources[name]
	return r, ok
}

// ResourceNames возвращает имена всех ресурсов каталога.
func ResourceNames() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	return names
}
