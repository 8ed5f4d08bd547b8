package handler

import (
	"errors"
	"net/http"
	"reflect"

	"sistemavendas/internal/apierror"
	"sistemavendas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramUUID parses a path param; on failure it writes 400 and returns false.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps a service error kind to its HTTP status. 0 means internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoEncontrado), errors.Is(err, service.ErrNoEsKit):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNombreInvalido),
		errors.Is(err, service.ErrPrecioInvalido),
		errors.Is(err, service.ErrCantidadInvalida),
		errors.Is(err, service.ErrProductoEsKit),
		errors.Is(err, service.ErrEsKit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrMiembroDuplicado),
		errors.Is(err, service.ErrNombreDuplicado),
		errors.Is(err, service.ErrReferenciaColgante),
		errors.Is(err, service.ErrProductoEnUso),
		errors.Is(err, service.ErrStockInsuficiente),
		errors.Is(err, service.ErrOperacionEnCurso):
		return http.StatusConflict
	default:
		return 0
	}
}

// respondError writes the error envelope. Store failures are attached to the
// context for ErrorHandler to log and the client only sees a generic message.
func respondError(c *gin.Context, err error) {
	if status := statusFor(err); status != 0 {
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
}
