// Package contract compiles declarative route contracts.
//
// A route contract describes everything a request to one route may carry:
// path, query, header and cookie parameters, an optional body schema, and
// file upload policies. Contracts are written as data, usually YAML or JSON:
//
//	definitions:
//	  Item:
//	    type: object
//	    required: [name, price]
//	    properties:
//	      name: {type: string, minLength: 1}
//	      price: {type: number, exclusiveMinimum: 0}
//	routes:
//	  - name: create_item
//	    method: POST
//	    path: /items/{shop}
//	    parameter_schema:
//	      type: object
//	      required: [limit]
//	      properties:
//	        shop: {type: string, source: path}
//	        limit: {type: integer, exclusiveMinimum: 0, source: query}
//	        x-request-id: {type: string, format: uuid, source: header}
//	    request_schema: {$ref: "#/definitions/Item"}
//	    file_params:
//	      receipt: {content_type: application/pdf, validate_magic_numbers: true}
//
// [Compile] turns one [Definition] into an immutable [RouteContract]; a [Set]
// compiles a whole document, sharing resolved definitions between routes.
// Compiled contracts are read-only and safe to share between goroutines.
package contract
