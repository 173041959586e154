package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode           = "VALIDATION_FAILED"
	InvalidPaginationCode         = "INVALID_PAGINATION"
	InvalidLimitCode              = "INVALID_LIMIT"
	InvalidCursorCode             = "INVALID_CURSOR"
	EmptySearchQueryCode          = "EMPTY_SEARCH_QUERY"
	InvalidProductIDCode          = "INVALID_PRODUCT_ID"
	InvalidRequestBodyCode        = "INVALID_REQUEST_BODY"
	MissingRequiredFieldsCode     = "MISSING_REQUIRED_FIELDS"
	InvalidNumericFieldsCode      = "INVALID_NUMERIC_FIELDS"
	InvalidImageCode              = "INVALID_IMAGE"
	CategoryNotFoundCode          = "CATEGORY_NOT_FOUND"
	InvalidCategoryPaginationCode = "INVALID_CATEGORY_PAGINATION"
	ProductNotFoundCode           = "PRODUCT_NOT_FOUND"
	DuplicateProductCodeCode      = "DUPLICATE_PRODUCT_CODE"
	InternalCode                  = "INTERNAL"
)

var (
	ValidationErr = zerror.NewInvalidArgument(ValidationErrorCode, "Données invalides.")

	ErrInvalidPagination = zerror.NewInvalidArgument(InvalidPaginationCode,
		"Les paramètres offset et limit doivent être des nombres valides et positifs.")
	ErrInvalidLimit = zerror.NewInvalidArgument(InvalidLimitCode,
		"Le paramètre limit doit être un nombre valide et supérieur à 0.")
	ErrInvalidCursor = zerror.NewInvalidArgument(InvalidCursorCode,
		"Le paramètre cursor doit être un identifiant de produit valide.")
	ErrEmptySearchQuery = zerror.NewInvalidArgument(EmptySearchQueryCode,
		"Veuillez fournir un terme de recherche.")
	ErrInvalidProductID = zerror.NewInvalidArgument(InvalidProductIDCode,
		"L'identifiant du produit doit être un nombre valide.")
	ErrInvalidRequestBody = zerror.NewInvalidArgument(InvalidRequestBodyCode,
		"Le corps de la requête est invalide.")
	ErrMissingRequiredFields = zerror.NewInvalidArgument(MissingRequiredFieldsCode,
		"Les champs obligatoires (name, codeProduct, price, stock, id_category) doivent être remplis")
	ErrInvalidNumericFields = zerror.NewInvalidArgument(InvalidNumericFieldsCode,
		"Les champs price, stock et id_category doivent être des nombres valides")
	ErrInvalidImage = zerror.NewInvalidArgument(InvalidImageCode,
		"Image invalide.")
	ErrCategoryNotFound = zerror.NewInvalidArgument(CategoryNotFoundCode,
		"La catégorie indiquée n'existe pas.")
	ErrInvalidCategoryPagination = zerror.NewInvalidArgument(InvalidCategoryPaginationCode,
		"Les paramètres page et limit doivent être des nombres entiers positifs.")

	ErrProductNotFound = zerror.NewNotFound(ProductNotFoundCode, "Produit non trouvé.")

	ErrDuplicateProductCode = zerror.NewConflict(DuplicateProductCodeCode,
		"Ce code produit est déjà utilisé.")

	ErrInternal = zerror.NewInternal(InternalCode,
		"Une erreur interne est survenue. Veuillez réessayer plus tard.")
)
