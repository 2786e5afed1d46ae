package validation

var defaultMessages = map[string]string{
	"required":        "The :attribute field is required.",
	"required_if":     "The :attribute field is required when :other is :value.",
	"accepted":        "The :attribute field must be accepted.",
	"string":          "The :attribute field must be a string.",
	"email":           "The :attribute field must be a valid email address.",
	"url":             "The :attribute field must be a valid URL.",
	"numeric":         "The :attribute field must be a number.",
	"integer":         "The :attribute field must be an integer.",
	"boolean":         "The :attribute field must be true or false.",
	"min.numeric":     "The :attribute field must be at least :min.",
	"min.string":      "The :attribute field must be at least :min characters.",
	"min.array":       "The :attribute field must have at least :min items.",
	"max.numeric":     "The :attribute field must not be greater than :max.",
	"max.string":      "The :attribute field must not be greater than :max characters.",
	"max.array":       "The :attribute field must not have more than :max items.",
	"between.numeric": "The :attribute field must be between :min and :max.",
	"between.string":  "The :attribute field must be between :min and :max characters.",
	"between.array":   "The :attribute field must have between :min and :max items.",
	"size.numeric":    "The :attribute field must be :size.",
	"size.string":     "The :attribute field must be :size characters.",
	"size.array":      "The :attribute field must contain :size items.",
	"in":              "The selected :attribute is invalid.",
	"not_in":          "The selected :attribute is invalid.",
	"regex":           "The :attribute field format is invalid.",
	"alpha":           "The :attribute field must only contain letters.",
	"alpha_num":       "The :attribute field must only contain letters and numbers.",
	"alpha_dash":      "The :attribute field must only contain letters, numbers, dashes, and underscores.",
	"same":            "The :attribute field must match :other.",
	"different":       "The :attribute field and :other must be different.",
	"confirmed":       "The :attribute field confirmation does not match.",
	"date":            "The :attribute field must be a valid date.",
}
