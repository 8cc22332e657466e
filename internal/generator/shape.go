package generator

import (
	"go/token"
	"strings"

	"github.com/toyz/mergeme/internal/models"
)

// BuildShape computes the partial type generated for record. Field order,
// names and count follow the record exactly; every type is wrapped in a pointer.
func BuildShape(record *models.RecordDefinition, validated *models.ValidatedDirectives) models.TypeShape {
	shape := models.TypeShape{
		Name:       validated.Partial.Name,
		Exported:   token.IsExported(validated.Partial.Name),
		TypeParams: record.TypeParams,
		Fields:     make([]models.FieldShape, len(record.Fields)),
	}

	if len(record.TypeParamNames) > 0 {
		shape.TypeArgs = "[" + strings.Join(record.TypeParamNames, ", ") + "]"
	}

	for _, attr := range validated.Partial.Attributes {
		if attr.Kind == models.CommentAttribute {
			shape.Comments = append(shape.Comments, attr.CommentLine())
		}
	}

	for i, field := range record.Fields {
		var attrs []models.Attribute
		if i < len(validated.Fields) {
			attrs = validated.Fields[i].Attributes
		}
		shape.Fields[i] = buildFieldShape(field, attrs)
	}

	return shape
}

func buildFieldShape(field models.FieldDefinition, attrs []models.Attribute) models.FieldShape {
	shape := models.FieldShape{
		Name:  field.Name,
		Type:  OptionalType(field.Type),
		Blank: field.IsBlank(),
	}

	var tags []string
	for _, attr := range attrs {
		switch attr.Kind {
		case models.TagAttribute:
			tags = append(tags, attr.TagEntry())
		case models.CommentAttribute:
			shape.Comments = append(shape.Comments, attr.CommentLine())
		}
	}
	shape.Tag = strings.Join(tags, " ")

	return shape
}

// OptionalType returns the wrapper used for a field of type typ in the
// partial. Pointer types are wrapped again so that a present nil pointer
// stays distinguishable from an absent field.
func OptionalType(typ string) string {
	return "*" + typ
}
