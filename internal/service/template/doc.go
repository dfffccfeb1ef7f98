// Package template stores email templates and renders them with Liquid.
//
// Templates owned by no user are system defaults, readable by everyone and
// editable by no one through the API. Supported placeholders include
// {{name}}, {{email}}, {{unsubscribe_link}} and {{list_name}}; missing
// variables render as empty strings.
package template
