package wehttp

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type Serializer[T any] func(entity *es.Entity[T]) (map[string]any, error)

// StateSerializer renders the entity state's JSON fields as the resource body.
func StateSerializer[T any](entity *es.Entity[T]) (map[string]any, error) {
	serialized, err := json.Marshal(entity.State)
	if err != nil {
		return nil, err
	}

	resource := map[string]any{}
	if err := json.Unmarshal(serialized, &resource); err != nil {
		return nil, err
	}

	return resource, nil
}

type ResourceEncoder[T any] struct {
	Serializer Serializer[T]
}

// Resource serializes the entity and adds its $id, $type and $revision.
func (encoder ResourceEncoder[T]) Resource(entity *es.Entity[T]) (map[string]any, error) {
	serialize := encoder.Serializer
	if serialize == nil {
		serialize = StateSerializer[T]
	}

	resource, err := serialize(entity)
	if err != nil {
		return nil, err
	}

	resource["$id"] = entity.ID.Encode()
	resource["$type"] = entity.Type
	resource["$revision"] = entity.Revision

	return resource, nil
}

func (encoder ResourceEncoder[T]) Encode(w http.ResponseWriter, r *http.Request, entity *es.Entity[T]) error {
	resource, err := encoder.Resource(entity)
	if err != nil {
		return err
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resource)

	return nil
}
