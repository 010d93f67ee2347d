package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, lte=100 work on money fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apierror.Validation("JSON invalido", map[string]string{"body": err.Error()}))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(c, err)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe.Namespace())] = fe.Tag()
		}
		respondError(c, apierror.Validation("", fields))
		return false
	}
	return true
}

// fieldPath drops the root struct name: "CreateSaleRequest.details[0].quantity"
// becomes "details[0].quantity".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.Envelope{StatusCode: status, Message: message, Data: data})
}

func respondList(c *gin.Context, message string, data any, count int64) {
	c.JSON(http.StatusOK, dto.Envelope{StatusCode: http.StatusOK, Message: message, Data: data, Count: &count})
}

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// pathID parses a UUID path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apierror.Validation("ID invalido", map[string]string{name: "identificador invalido"}))
		return uuid.Nil, false
	}
	return id, true
}

func listQuery(c *gin.Context) (dto.ListQuery, bool) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apierror.Validation("Parametros de consulta invalidos", map[string]string{"query": err.Error()}))
		return q, false
	}
	return q, true
}

// MethodNotAllowed answers mutations of immutable records.
func MethodNotAllowed(c *gin.Context) {
	respondError(c, apierror.ErrMethodNotAllowed)
}
