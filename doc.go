// Package ngpack packages an Angular component library for npm.
//
// A build stages the library sources under out-tsc/lib, compiles the
// style sources, inlines templates and styles into the components,
// compiles the library to ES5 and ES2015 with ngc, bundles both outputs
// with rollup and assembles the dist directory with the typings,
// metadata and package files. The first failed stage stops the build;
// dist is only replaced after every stage succeeded.
package ngpack
